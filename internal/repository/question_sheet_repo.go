package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dynaform/internal/model"
)

// QuestionSheetRepo handles MongoDB operations for question sheets
type QuestionSheetRepo interface {
	Create(ctx context.Context, sheet *model.QuestionSheet) (string, error)
	GetByID(ctx context.Context, id string) (*model.QuestionSheet, error)
	List(ctx context.Context) ([]*model.QuestionSheet, error)
	Update(ctx context.Context, sheet *model.QuestionSheet) error
	Delete(ctx context.Context, id string) error
	// SlugTaken reports whether another question sheet uses slug
	SlugTaken(ctx context.Context, slug, excludeSheetID string) (bool, error)
}

type questionSheetRepo struct {
	collection *mongo.Collection
}

// NewQuestionSheetRepo creates a new question sheet repository
func NewQuestionSheetRepo(db *mongo.Database, collection string) QuestionSheetRepo {
	return &questionSheetRepo{
		collection: db.Collection(collection),
	}
}

func (r *questionSheetRepo) Create(ctx context.Context, sheet *model.QuestionSheet) (string, error) {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	sheet.CreatedAt = time.Now()
	sheet.UpdatedAt = sheet.CreatedAt

	if _, err := r.collection.InsertOne(ctx, sheet); err != nil {
		return "", err
	}
	return sheet.ID, nil
}

func (r *questionSheetRepo) GetByID(ctx context.Context, id string) (*model.QuestionSheet, error) {
	var sheet model.QuestionSheet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sheet)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *questionSheetRepo) List(ctx context.Context) ([]*model.QuestionSheet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "label", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sheets := []*model.QuestionSheet{}
	if err := cursor.All(ctx, &sheets); err != nil {
		return nil, err
	}
	return sheets, nil
}

func (r *questionSheetRepo) Update(ctx context.Context, sheet *model.QuestionSheet) error {
	sheet.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sheet.ID}, sheet)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionSheetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *questionSheetRepo) SlugTaken(ctx context.Context, slug, excludeSheetID string) (bool, error) {
	filter := bson.M{"pages.questions.slug": slug}
	if excludeSheetID != "" {
		filter["_id"] = bson.M{"$ne": excludeSheetID}
	}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
