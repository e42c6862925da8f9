package events

import (
	"context"
	"errors"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultCheckpointKey is where the messages watcher keeps its resume token.
const DefaultCheckpointKey = "kabir:events:messages:resume_token"

// Checkpoint persists the resume token of the last fully processed event.
type Checkpoint interface {
	Load(ctx context.Context) (bson.Raw, error)
	Save(ctx context.Context, token bson.Raw) error
}

type RedisCheckpoint struct {
	client *redis.Client
	key    string
}

func NewRedisCheckpoint(client *redis.Client, key string) *RedisCheckpoint {
	if key == "" {
		key = DefaultCheckpointKey
	}
	return &RedisCheckpoint{client: client, key: key}
}

func (c *RedisCheckpoint) Load(ctx context.Context) (bson.Raw, error) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bson.Raw(b), nil
}

func (c *RedisCheckpoint) Save(ctx context.Context, token bson.Raw) error {
	return c.client.Set(ctx, c.key, []byte(token), 0).Err()
}

// MemoryCheckpoint keeps the token for the life of the process only. A
// restart resumes from the current end of the stream.
type MemoryCheckpoint struct {
	mu    sync.Mutex
	token bson.Raw
	saves int
}

func (c *MemoryCheckpoint) Load(context.Context) (bson.Raw, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *MemoryCheckpoint) Save(_ context.Context, token bson.Raw) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = append(bson.Raw(nil), token...)
	c.saves++
	return nil
}

// Saves reports how many tokens have been committed.
func (c *MemoryCheckpoint) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}
