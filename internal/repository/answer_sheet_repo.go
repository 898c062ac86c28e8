package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"dynaform/internal/model"
)

var ErrNotFound = errors.New("not found")

// AnswerSheetRepo handles MongoDB operations for answer sheets
type AnswerSheetRepo interface {
	Create(ctx context.Context, sheet *model.AnswerSheet) (string, error)
	GetByID(ctx context.Context, id string) (*model.AnswerSheet, error)
	ListByQuestionSheet(ctx context.Context, questionSheetID string) ([]*model.AnswerSheet, error)
	Update(ctx context.Context, sheet *model.AnswerSheet) error
	Delete(ctx context.Context, id string) error
}

type answerSheetRepo struct {
	collection *mongo.Collection
}

// NewAnswerSheetRepo creates a new answer sheet repository
func NewAnswerSheetRepo(db *mongo.Database, collection string) AnswerSheetRepo {
	return &answerSheetRepo{
		collection: db.Collection(collection),
	}
}

func (r *answerSheetRepo) Create(ctx context.Context, sheet *model.AnswerSheet) (string, error) {
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

func (r *answerSheetRepo) GetByID(ctx context.Context, id string) (*model.AnswerSheet, error) {
	var sheet model.AnswerSheet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sheet)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *answerSheetRepo) ListByQuestionSheet(ctx context.Context, questionSheetID string) ([]*model.AnswerSheet, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"questionSheetId": questionSheetID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sheets := []*model.AnswerSheet{}
	if err := cursor.All(ctx, &sheets); err != nil {
		return nil, err
	}
	return sheets, nil
}

func (r *answerSheetRepo) Update(ctx context.Context, sheet *model.AnswerSheet) error {
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

func (r *answerSheetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
