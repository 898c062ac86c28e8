package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dynaform/internal/engine"
	"dynaform/internal/model"
)

// AnswerRepo handles persistence of free-question answers
type AnswerRepo interface {
	engine.AnswerStore
	ListBySheet(ctx context.Context, answerSheetID string) ([]*model.Answer, error)
	DeleteBySheet(ctx context.Context, answerSheetID string) error
	EnsureIndexes(ctx context.Context) error
}

type answerRepo struct {
	collection    *mongo.Collection
	transactional bool
}

// NewAnswerRepo creates a mongo-backed answer repository. Without
// transactions (standalone servers) InTransaction records a compensating
// write for every change and replays them if fn fails.
func NewAnswerRepo(db *mongo.Database, collection string, transactional bool) AnswerRepo {
	return &answerRepo{
		collection:    db.Collection(collection),
		transactional: transactional,
	}
}

// EnsureIndexes creates the lookup index on (questionId, answerSheetId)
func (r *answerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "answerSheetId", Value: 1}, {Key: "questionId", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (r *answerRepo) Find(ctx context.Context, questionID, answerSheetID string) ([]*model.Answer, error) {
	filter := bson.M{"questionId": questionID, "answerSheetId": answerSheetID}
	return r.find(ctx, filter)
}

func (r *answerRepo) ListBySheet(ctx context.Context, answerSheetID string) ([]*model.Answer, error) {
	return r.find(ctx, bson.M{"answerSheetId": answerSheetID})
}

func (r *answerRepo) find(ctx context.Context, filter bson.M) ([]*model.Answer, error) {
	// object ids sort in creation order
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	answers := []*model.Answer{}
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) Create(ctx context.Context, answer *model.Answer) error {
	now := time.Now()
	if answer.ID == "" {
		answer.ID = primitive.NewObjectID().Hex()
	}
	answer.CreatedAt = now
	answer.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, answer); err != nil {
		answer.ID = ""
		return err
	}
	id := answer.ID
	undoLogFrom(ctx).push(func(ctx context.Context) error {
		_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	return nil
}

func (r *answerRepo) Update(ctx context.Context, answer *model.Answer, value string) error {
	now := time.Now()
	var prev model.Answer
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": answer.ID},
		bson.M{"$set": bson.M{"value": value, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("answer %s not found", answer.ID)
	}
	if err != nil {
		return err
	}
	undoLogFrom(ctx).push(func(ctx context.Context) error {
		_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": prev.ID}, &prev)
		return err
	})
	answer.Value = value
	answer.UpdatedAt = now
	return nil
}

func (r *answerRepo) Delete(ctx context.Context, answer *model.Answer) error {
	var prev model.Answer
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": answer.ID}).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	undoLogFrom(ctx).push(func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, &prev)
		return err
	})
	return nil
}

func (r *answerRepo) DeleteBySheet(ctx context.Context, answerSheetID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"answerSheetId": answerSheetID})
	return err
}

func (r *answerRepo) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.transactional {
		return runWithUndo(ctx, fn)
	}
	sess, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
