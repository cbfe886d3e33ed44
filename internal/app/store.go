package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vasu1712/dronepilot-backend/internal/config"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/cache"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/memory"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/mongodb"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/postgres"
)

// OpenStore picks a backend by the scheme of db.URL.
func OpenStore(ctx context.Context, db config.DatabaseConfig) (storage.SceneStore, error) {
	scheme, _, ok := strings.Cut(db.URL, "://")
	if !ok {
		return nil, fmt.Errorf("DATABASE_URL %q has no scheme", redact(db.URL))
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return mongodb.Open(ctx, db.URL, db.MongoDatabase)
	case "postgres", "postgresql":
		return postgres.Open(ctx, db.URL, postgres.PoolConfig{
			MaxOpenConns:    db.MaxOpenConns,
			MaxIdleConns:    db.MaxIdleConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
		})
	case "memory":
		return memory.NewSceneStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// withCache wraps store with the Valkey list cache when one is configured.
// An unreachable cache server is logged and skipped.
func withCache(ctx context.Context, store storage.SceneStore, cfg config.CacheConfig, logger logging.Logger) storage.SceneStore {
	if !cfg.Enabled() {
		return store
	}

	backend, err := cache.NewValkeyBackend(ctx, cache.ValkeyOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn(ctx, "scene cache disabled", "addr", cfg.Addr, "error", err)
		return store
	}

	logger.Info(ctx, "scene cache enabled", "addr", cfg.Addr, "ttl", cfg.TTL)
	return cache.NewSceneStore(store, backend, cfg.TTL, logger)
}

// redact drops credentials from a connection string for logs and errors.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return "***" + dsn[at:]
	}
	return scheme + "://***" + dsn[at:]
}
