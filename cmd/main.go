package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vasu1712/dronepilot-backend/internal/app"
	"github.com/Vasu1712/dronepilot-backend/internal/config"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", "text").Error(context.Background(), "invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}
