// Package handler is the serverless entrypoint. Each invocation reuses one
// lazily built App.
package handler

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/Vasu1712/dronepilot-backend/internal/api"
	"github.com/Vasu1712/dronepilot-backend/internal/app"
	"github.com/Vasu1712/dronepilot-backend/internal/config"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
)

var (
	once    sync.Once
	handler http.Handler
)

func setup() {
	logger := logging.New(os.Stdout, os.Getenv("LOG_LEVEL"), "json")

	cfg, err := config.Load()
	if err != nil {
		logger.Error(context.Background(), "invalid configuration", "error", err)
		return
	}
	cfg.Mode = config.ModeServerless
	logger = logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error(context.Background(), "startup failed", "error", err)
		return
	}
	handler = a.Handler()
}

// Handler serves one platform invocation.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if handler == nil {
		api.Fail(w, http.StatusInternalServerError, api.MsgInternal)
		return
	}
	handler.ServeHTTP(w, r)
}
