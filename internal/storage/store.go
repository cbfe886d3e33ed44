// Package storage defines the persistence contract for scenes. Concrete
// backends live in the memory, postgres and mongodb subpackages; cache wraps
// any of them with a list cache.
package storage

import (
	"context"
	"errors"

	"github.com/Vasu1712/dronepilot-backend/internal/models"
)

// ErrNotFound is returned when a scene id does not resolve to a stored scene.
// Ids that are malformed for a backend's id format are reported the same way.
var ErrNotFound = errors.New("scene not found")

// SceneStore persists scenes.
type SceneStore interface {
	// CreateScene stores scene, assigning ID and timestamps, and returns the stored copy.
	CreateScene(ctx context.Context, scene *models.Scene) (*models.Scene, error)
	// ListScenes returns the scenes owned by userID, newest first.
	ListScenes(ctx context.Context, userID string) ([]*models.Scene, error)
	// GetScene returns a single scene or ErrNotFound.
	GetScene(ctx context.Context, id string) (*models.Scene, error)
	// DeleteScene removes a scene and returns what was removed, or ErrNotFound.
	DeleteScene(ctx context.Context, id string) (*models.Scene, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's connections.
	Close(ctx context.Context) error
}
