package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"medassist/api/internal/app"
	"medassist/api/internal/config"
	"medassist/api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Fatal("load config", "err", err)
	}
	logger := logging.New(logging.Options{Debug: cfg.DebugEnabled(), JSON: cfg.JSONLogs()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := func() *app.App { return app.New(cfg, logger, nil) }
	root := NewRootCommand(ctx, afero.NewOsFs(), build, logger)
	if err := root.Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
