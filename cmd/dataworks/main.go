package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	rootPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dataworks",
		Short:        "DataWorks task automation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.dataworks/config.yaml)")
	root.PersistentFlags().StringVar(&rootPath, "root", "", "sandbox root (overrides sandbox.root)")

	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(readCmd())
	root.AddCommand(tasksCmd())
	root.AddCommand(versionCmd())
	return root
}
