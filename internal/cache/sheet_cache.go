package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dynaform/internal/model"
)

// SheetCache handles Redis operations for question sheet schemas
type SheetCache interface {
	Set(ctx context.Context, sheet *model.QuestionSheet) error
	Get(ctx context.Context, id string) (*model.QuestionSheet, error)
	Delete(ctx context.Context, id string) error
}

type sheetCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSheetCache creates a new question sheet cache
func NewSheetCache(client *redis.Client) SheetCache {
	return &sheetCache{
		client: client,
		ttl:    6 * time.Hour,
	}
}

func (c *sheetCache) key(id string) string {
	return fmt.Sprintf("qsheet:%s", id)
}

func (c *sheetCache) Set(ctx context.Context, sheet *model.QuestionSheet) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sheet.ID), data, c.ttl).Err()
}

func (c *sheetCache) Get(ctx context.Context, id string) (*model.QuestionSheet, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sheet model.QuestionSheet
	if err := json.Unmarshal([]byte(data), &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (c *sheetCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
