package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sameehj/dataworks/pkg/gateway"
	"github.com/sameehj/dataworks/pkg/task"
	"github.com/sameehj/dataworks/pkg/version"
	"github.com/sameehj/dataworks/pkg/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type serveOptions struct {
	addr   string
	watch  bool
	strict bool
}

func (o *serveOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.addr, "addr", "", "listen address (overrides gateway.address)")
	fs.BoolVar(&o.watch, "watch", false, "re-render markdown files as they change")
	fs.BoolVar(&o.strict, "strict-status", false, "return 403/404 for read-file failures")
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if opts.addr != "" {
				cfg.Gateway.Address = opts.addr
			}
			if flags.Changed("watch") {
				cfg.Watch.Enabled = opts.watch
			}
			if flags.Changed("strict-status") {
				cfg.Gateway.StrictStatus = opts.strict
			}

			a, err := newApp(cfg, os.Stdout)
			if err != nil {
				return err
			}

			gw := gateway.NewServer(a.dispatcher, a.box, gateway.Options{
				Addr:            cfg.Gateway.Address,
				StrictStatus:    cfg.Gateway.StrictStatus,
				MaxBodyBytes:    cfg.Gateway.MaxBodyBytes,
				ShutdownTimeout: cfg.ShutdownTimeout(),
				Authorizer:      gateway.AllowlistAuthorizer{Allowed: cfg.Gateway.AllowedAddrs},
			})
			gw.SetLogger(a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Watch.Enabled {
				w := watcher.New(a.box, a.handlers.Markdown, cfg.WatchDebounce())
				w.SetLogger(a.logger)
				go func() {
					if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						a.logger.Error("watcher_stopped", "error", err)
					}
				}()
			}

			if err := gw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	opts.bind(cmd.Flags())
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <task description>",
		Short: "Run a single task and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res := a.dispatcher.Run(cmd.Context(), strings.Join(args, " "))
			if err := printJSON(cmd, res.Envelope().Body()); err != nil {
				return err
			}
			if res.Status != task.StatusSucceeded {
				return fmt.Errorf("task %s", res.Status)
			}
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <path>",
		Short: "Print a file from the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			content, err := a.box.Read(args[0])
			if err != nil {
				return errors.New(task.PublicMessage(err))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List recognized tasks in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			registry := a.handlers.Registry()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, rule := range a.dispatcher.Matcher().Rules() {
				desc := "not implemented"
				if h, ok := registry.Get(rule.Handler); ok {
					desc = h.Description()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rule.Handler, strings.Join(rule.Keywords, "+"), desc)
			}
			return tw.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
