package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ObjectRepo stores the object graph bound questions write to, one
// document per graph root.
type ObjectRepo interface {
	Get(ctx context.Context, id string) (map[string]any, error)
	Save(ctx context.Context, id string, data map[string]any) error
	Delete(ctx context.Context, id string) error
}

type objectRepo struct {
	collection *mongo.Collection
}

type objectDoc struct {
	ID        string         `bson:"_id"`
	Data      map[string]any `bson:"data"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// NewObjectRepo creates a new object graph repository
func NewObjectRepo(db *mongo.Database, collection string) ObjectRepo {
	return &objectRepo{
		collection: db.Collection(collection),
	}
}

// Get returns the stored graph as plain JSON-shaped values, or nil when absent
func (r *objectRepo) Get(ctx context.Context, id string) (map[string]any, error) {
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"data": 1, "_id": 0})).Raw()
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// relaxed extended JSON turns nested documents into plain maps
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	var doc struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(ext, &doc); err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc.Data, nil
}

func (r *objectRepo) Save(ctx context.Context, id string, data map[string]any) error {
	doc := objectDoc{ID: id, Data: data, UpdatedAt: time.Now()}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *objectRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
