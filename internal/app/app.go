// Package app wires configuration, storage, auth and the scene router into
// one HTTP host. The same host serves both deployment modes; the mode only
// changes which utility routes exist and whether Run owns a listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/api"
	"github.com/Vasu1712/dronepilot-backend/internal/api/scenes"
	"github.com/Vasu1712/dronepilot-backend/internal/auth"
	"github.com/Vasu1712/dronepilot-backend/internal/config"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/middleware"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/memory"
	"github.com/Vasu1712/dronepilot-backend/internal/validation"
	"github.com/Vasu1712/dronepilot-backend/internal/ws"
	"github.com/gorilla/mux"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	Store    storage.SceneStore
	Verifier auth.Verifier
	Hub      *ws.Hub // nil disables the events websocket
}

// NewRouter builds the full HTTP handler, middleware included.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.Fail(w, http.StatusNotFound, api.MsgRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, api.MsgMethodNotAllowed)
	})

	health := &healthHandler{service: cfg.Service.Name, store: d.Store, logger: d.Logger, now: time.Now}
	switch cfg.Mode {
	case config.ModeServerless:
		r.HandleFunc("/api/health", health.Liveness).Methods(http.MethodGet)
		r.HandleFunc("/api/ready", health.Readiness).Methods(http.MethodGet)
		r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintf(w, "%s on Vercel", cfg.Service.Name)
		}).Methods(http.MethodGet)
	default:
		r.HandleFunc("/health", health.Liveness).Methods(http.MethodGet)
		r.HandleFunc("/ready", health.Readiness).Methods(http.MethodGet)
	}

	sceneHandler := &scenes.SceneHandler{
		Store:            d.Store,
		Hub:              d.Hub,
		Validator:        validation.New(),
		Logger:           d.Logger.With("component", "scenes"),
		EnforceOwnership: cfg.Auth.EnforceOwnership,
	}
	scenes.RegisterSceneRoutes(r, sceneHandler, middleware.RequireAuth(d.Verifier, d.Logger))

	var h http.Handler = r
	h = middleware.BodyLimit(cfg.Server.BodyLimit)(h)
	h = middleware.CORS(cfg.CORS.AllowOrigins, cfg.CORS.AllowHeaders)(h)
	h = middleware.Recover(d.Logger)(h)
	h = middleware.RequestLogger(d.Logger)(h)
	return h
}

// App owns the store, the event hub and the HTTP handler.
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	store   storage.SceneStore
	hub     *ws.Hub
	handler http.Handler

	stopHub context.CancelFunc
	hubDone chan struct{}
}

// New opens the store and builds the handler. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	verifier, err := auth.NewClerkVerifier(cfg.Auth.JWTKey, cfg.Auth.AuthorizedParties)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open scene store: %w", err)
	}
	if _, ok := store.(*memory.SceneStore); ok {
		logger.Warn(ctx, "using in-memory scene store; scenes are lost on restart")
	}
	store = withCache(ctx, store, cfg.Cache, logger)

	a := &App{cfg: cfg, logger: logger, store: store}

	// Serverless invocations can't hold websockets open.
	if cfg.Mode == config.ModeStandalone {
		hubCtx, cancel := context.WithCancel(context.Background())
		a.hub = ws.NewHub()
		a.stopHub = cancel
		a.hubDone = make(chan struct{})
		go func() {
			defer close(a.hubDone)
			a.hub.Run(hubCtx)
		}()
	}

	a.handler = NewRouter(Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Verifier: verifier,
		Hub:      a.hub,
	})
	return a, nil
}

// Handler is the complete HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured port until ctx is canceled, then shuts the
// server down and closes the App.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "server started", "addr", srv.Addr, "mode", a.cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case err := <-errCh:
		runErr = err
	case <-ctx.Done():
		a.logger.Info(ctx, "shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// Close stops the event hub and closes the store.
func (a *App) Close(ctx context.Context) error {
	if a.stopHub != nil {
		a.stopHub()
		<-a.hubDone
		a.stopHub = nil
	}
	if err := a.store.Close(ctx); err != nil {
		return fmt.Errorf("close scene store: %w", err)
	}
	a.logger.Info(ctx, "scene store closed")
	return nil
}
