package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/models"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"github.com/google/uuid"
)

// SceneStore keeps scenes in process memory. It is used for local development
// and tests; nothing survives a restart.
type SceneStore struct {
	mu             sync.RWMutex
	scenes         map[string]*models.Scene // sceneID -> scene
	userSceneIndex map[string][]string      // userID -> sceneIDs in insertion order
	now            func() time.Time
}

// NewSceneStore creates an empty SceneStore.
func NewSceneStore() *SceneStore {
	return &SceneStore{
		scenes:         make(map[string]*models.Scene),
		userSceneIndex: make(map[string][]string),
		now:            time.Now,
	}
}

// CreateScene stores a copy of scene under a fresh UUID.
func (s *SceneStore) CreateScene(ctx context.Context, scene *models.Scene) (*models.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := scene.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC()
	stored.UpdatedAt = stored.CreatedAt

	s.scenes[stored.ID] = stored
	s.userSceneIndex[stored.UserID] = append(s.userSceneIndex[stored.UserID], stored.ID)

	return stored.Clone(), nil
}

// ListScenes returns userID's scenes by CreatedAt descending. Scenes sharing a
// timestamp keep reverse insertion order.
func (s *SceneStore) ListScenes(ctx context.Context, userID string) ([]*models.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.userSceneIndex[userID]
	userScenes := make([]*models.Scene, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if scene, ok := s.scenes[ids[i]]; ok {
			userScenes = append(userScenes, scene.Clone())
		}
	}
	sort.SliceStable(userScenes, func(i, j int) bool {
		return userScenes[i].CreatedAt.After(userScenes[j].CreatedAt)
	})
	return userScenes, nil
}

// GetScene retrieves a scene by its ID.
func (s *SceneStore) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scene, ok := s.scenes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return scene.Clone(), nil
}

// DeleteScene removes a scene and drops it from its owner's index.
func (s *SceneStore) DeleteScene(ctx context.Context, id string) (*models.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scene, ok := s.scenes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.scenes, id)

	userScenes := s.userSceneIndex[scene.UserID]
	for i, sceneID := range userScenes {
		if sceneID == id {
			s.userSceneIndex[scene.UserID] = append(userScenes[:i:i], userScenes[i+1:]...)
			break
		}
	}
	if len(s.userSceneIndex[scene.UserID]) == 0 {
		delete(s.userSceneIndex, scene.UserID)
	}

	return scene, nil
}

// Ping always succeeds.
func (s *SceneStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *SceneStore) Close(context.Context) error { return nil }
