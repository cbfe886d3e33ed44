// Package mongodb stores scenes as documents in a MongoDB "scenes"
// collection. Field names are camelCase and timestamps are createdAt and
// updatedAt, matching the collection's existing layout.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/models"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const collectionName = "scenes"

type sceneDocument struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	UserID           string        `bson:"userId"`
	Name             string        `bson:"name"`
	GroundWidth      float64       `bson:"groundWidth"`
	GroundDepth      float64       `bson:"groundDepth"`
	Texture          string        `bson:"texture"`
	ThumbnailTexture string        `bson:"thumbnailTexture,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

func newDocument(scene *models.Scene, now time.Time) sceneDocument {
	// BSON dates carry millisecond precision.
	now = now.UTC().Truncate(time.Millisecond)
	return sceneDocument{
		ID:               bson.NewObjectID(),
		UserID:           scene.UserID,
		Name:             scene.Name,
		GroundWidth:      scene.GroundWidth,
		GroundDepth:      scene.GroundDepth,
		Texture:          scene.Texture,
		ThumbnailTexture: scene.ThumbnailTexture,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (d sceneDocument) toModel() *models.Scene {
	return &models.Scene{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		Name:             d.Name,
		GroundWidth:      d.GroundWidth,
		GroundDepth:      d.GroundDepth,
		Texture:          d.Texture,
		ThumbnailTexture: d.ThumbnailTexture,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

// idFilter builds an _id filter. Ids that are not ObjectID hex can never
// match a document and are reported as storage.ErrNotFound.
func idFilter(id string) (bson.D, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return bson.D{{Key: "_id", Value: oid}}, nil
}

// SceneStore implements storage.SceneStore on a MongoDB collection.
type SceneStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Open connects to uri, pings the primary and ensures the listing index.
func Open(ctx context.Context, uri, database string) (*SceneStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create scenes index: %w", err)
	}

	return &SceneStore{client: client, coll: coll, now: time.Now}, nil
}

// CreateScene inserts a new document.
func (s *SceneStore) CreateScene(ctx context.Context, scene *models.Scene) (*models.Scene, error) {
	doc := newDocument(scene, s.now())
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo insert: %w", err)
	}
	return doc.toModel(), nil
}

// ListScenes returns userID's scenes, newest first.
func (s *SceneStore) ListScenes(ctx context.Context, userID string) ([]*models.Scene, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	var docs []sceneDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	scenes := make([]*models.Scene, 0, len(docs))
	for _, d := range docs {
		scenes = append(scenes, d.toModel())
	}
	return scenes, nil
}

// GetScene retrieves a scene by its ID.
func (s *SceneStore) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	filter, err := idFilter(id)
	if err != nil {
		return nil, err
	}

	var doc sceneDocument
	err = s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find one: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteScene removes a scene and returns the deleted document.
func (s *SceneStore) DeleteScene(ctx context.Context, id string) (*models.Scene, error) {
	filter, err := idFilter(id)
	if err != nil {
		return nil, err
	}

	var doc sceneDocument
	err = s.coll.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo delete: %w", err)
	}
	return doc.toModel(), nil
}

// Ping checks the primary is reachable.
func (s *SceneStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *SceneStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
