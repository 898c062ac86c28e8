package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChoiceCache keeps fetched remote choice documents keyed by source URL
type ChoiceCache interface {
	Get(ctx context.Context, source string) ([]byte, error)
	Set(ctx context.Context, source string, body []byte) error
	Delete(ctx context.Context, source string) error
}

type choiceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewChoiceCache creates a new choice source cache
func NewChoiceCache(client *redis.Client, ttl time.Duration) ChoiceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &choiceCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *choiceCache) key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("choices:src:%s", hex.EncodeToString(sum[:]))
}

func (c *choiceCache) Get(ctx context.Context, source string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(source)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *choiceCache) Set(ctx context.Context, source string, body []byte) error {
	return c.client.Set(ctx, c.key(source), body, c.ttl).Err()
}

func (c *choiceCache) Delete(ctx context.Context, source string) error {
	return c.client.Del(ctx, c.key(source)).Err()
}
