package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/models"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/postgres/migrations"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

const sceneColumns = `id, user_id, name, ground_width, ground_depth, texture, thumbnail_texture, created_at, updated_at`

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SceneStore implements storage.SceneStore on PostgreSQL.
type SceneStore struct {
	db *sql.DB
}

// gooseUp is swapped out in tests.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open connects to dsn, verifies the connection, applies migrations and
// returns a ready store.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*SceneStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := gooseUp(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewSceneStore(db), nil
}

// NewSceneStore wraps an already opened database.
func NewSceneStore(db *sql.DB) *SceneStore {
	return &SceneStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScene(row rowScanner) (*models.Scene, error) {
	var (
		scene     models.Scene
		thumbnail sql.NullString
	)
	err := row.Scan(
		&scene.ID, &scene.UserID, &scene.Name, &scene.GroundWidth, &scene.GroundDepth,
		&scene.Texture, &thumbnail, &scene.CreatedAt, &scene.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	scene.ThumbnailTexture = thumbnail.String
	return &scene, nil
}

// CreateScene inserts a row with a new UUID; timestamps come from the database.
func (s *SceneStore) CreateScene(ctx context.Context, scene *models.Scene) (*models.Scene, error) {
	query := `INSERT INTO scenes (id, user_id, name, ground_width, ground_depth, texture, thumbnail_texture)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING ` + sceneColumns

	row := s.db.QueryRowContext(ctx, query,
		uuid.NewString(), scene.UserID, scene.Name, scene.GroundWidth, scene.GroundDepth,
		scene.Texture, scene.ThumbnailTexture,
	)
	created, err := scanScene(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// ListScenes returns userID's scenes, newest first.
func (s *SceneStore) ListScenes(ctx context.Context, userID string) ([]*models.Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM scenes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	scenes := make([]*models.Scene, 0)
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scenes, nil
}

// GetScene retrieves a scene by its ID.
func (s *SceneStore) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.ErrNotFound
	}

	query := `SELECT ` + sceneColumns + ` FROM scenes WHERE id = $1`
	scene, err := scanScene(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scene, nil
}

// DeleteScene removes a scene and returns the deleted row.
func (s *SceneStore) DeleteScene(ctx context.Context, id string) (*models.Scene, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.ErrNotFound
	}

	query := `DELETE FROM scenes WHERE id = $1 RETURNING ` + sceneColumns
	scene, err := scanScene(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scene, nil
}

// Ping verifies the connection is alive.
func (s *SceneStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SceneStore) Close(context.Context) error {
	return s.db.Close()
}
