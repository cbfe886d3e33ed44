// Package cache puts a per-user list cache in front of a storage.SceneStore.
// Only ListScenes results are cached; creates and deletes invalidate the
// owner's entry. Cache failures are logged and never fail a request.
//
// Each user has a version counter next to the list entry. Invalidation bumps
// it, and an entry is only served when it was written under the current
// version, so a list read that races a create cannot be served after it.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/models"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
)

const (
	keyPrefix     = "scenes:user:"
	versionSuffix = ":version"
)

// Backend is the key/value server the cache writes to.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// SceneStore decorates another store with list caching.
type SceneStore struct {
	next    storage.SceneStore
	backend Backend
	ttl     time.Duration
	logger  logging.Logger
}

// NewSceneStore wraps next.
func NewSceneStore(next storage.SceneStore, backend Backend, ttl time.Duration, logger logging.Logger) *SceneStore {
	return &SceneStore{
		next:    next,
		backend: backend,
		ttl:     ttl,
		logger:  logger.With("component", "scene_cache"),
	}
}

// entry is the cached form of one user's list.
type entry struct {
	Version int64           `json:"version"`
	Scenes  []*models.Scene `json:"scenes"`
}

func userKey(userID string) string {
	return keyPrefix + userID
}

func versionKey(userID string) string {
	return keyPrefix + userID + versionSuffix
}

func (s *SceneStore) CreateScene(ctx context.Context, scene *models.Scene) (*models.Scene, error) {
	created, err := s.next.CreateScene(ctx, scene)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.UserID)
	return created, nil
}

func (s *SceneStore) ListScenes(ctx context.Context, userID string) ([]*models.Scene, error) {
	key := userKey(userID)

	version, ok := s.version(ctx, userID)
	if !ok {
		return s.next.ListScenes(ctx, userID)
	}

	raw, hit, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "cache get failed", "key", key, "error", err)
	}
	if hit {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Scenes == nil {
			s.logger.Warn(ctx, "discarding unreadable cache entry", "key", key)
		} else if e.Version == version {
			return e.Scenes, nil
		}
	}

	scenes, err := s.next.ListScenes(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(entry{Version: version, Scenes: scenes}); err == nil {
		if err := s.backend.Set(ctx, key, string(encoded), s.ttl); err != nil {
			s.logger.Warn(ctx, "cache set failed", "key", key, "error", err)
		}
	}
	return scenes, nil
}

// version reads the user's counter; a missing counter is version 0. ok is
// false when the counter can't be read, and the cache is bypassed.
func (s *SceneStore) version(ctx context.Context, userID string) (int64, bool) {
	key := versionKey(userID)
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "cache version get failed", "key", key, "error", err)
		return 0, false
	}
	if !found {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn(ctx, "unreadable cache version", "key", key, "error", err)
		return 0, false
	}
	return v, true
}

func (s *SceneStore) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	return s.next.GetScene(ctx, id)
}

func (s *SceneStore) DeleteScene(ctx context.Context, id string) (*models.Scene, error) {
	deleted, err := s.next.DeleteScene(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, deleted.UserID)
	return deleted, nil
}

// Ping checks the underlying store only; a cache outage degrades to misses.
func (s *SceneStore) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "cache ping failed", "error", err)
	}
	return s.next.Ping(ctx)
}

func (s *SceneStore) Close(ctx context.Context) error {
	s.backend.Close()
	return s.next.Close(ctx)
}

func (s *SceneStore) invalidate(ctx context.Context, userID string) {
	if _, err := s.backend.Incr(ctx, versionKey(userID)); err != nil {
		s.logger.Warn(ctx, "cache version bump failed", "user_id", userID, "error", err)
	}
	if err := s.backend.Del(ctx, userKey(userID)); err != nil {
		s.logger.Warn(ctx, "cache invalidate failed", "user_id", userID, "error", err)
	}
}
