package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/env"
	"github.com/sameehj/dataworks/pkg/handlers"
	"github.com/sameehj/dataworks/pkg/logging"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

// app is the wired set of components every command works against.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	box        *sandbox.IO
	handlers   *handlers.Set
	dispatcher *task.Dispatcher
}

func loadConfig() (*config.Config, error) {
	if _, err := env.LoadFromDir(".", "DATAWORKS_"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if rootPath != "" {
		cfg.Sandbox.Root = rootPath
	}
	return cfg, nil
}

func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)

	guard, err := sandbox.NewGuard(cfg.Sandbox.Root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	box := sandbox.NewIO(guard)

	set, err := handlers.New(cfg, handlers.Deps{Logger: logger})
	if err != nil {
		return nil, err
	}
	dispatcher := task.NewDispatcher(box, task.NewMatcher(task.DefaultRules()), set.Registry())
	dispatcher.SetLogger(logger)

	return &app{cfg: cfg, logger: logger, box: box, handlers: set, dispatcher: dispatcher}, nil
}
