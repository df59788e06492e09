package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records idempotency keys so a retried create is not applied twice,
// whichever instance the retry lands on.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, actorID, key string) (bool, error)
	// Remove deletes a previously added key, used when the create fails so
	// the client may retry with the same key.
	Remove(ctx context.Context, actorID, key string) error
}

// RedisDeduper stores idempotency keys in Redis with a TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(actorID, key string) string {
	return fmt.Sprintf("idem:%s:%s", actorID, key)
}

func (r *RedisDeduper) Add(ctx context.Context, actorID, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(actorID, key), 1, r.ttl).Result()
}

func (r *RedisDeduper) Remove(ctx context.Context, actorID, key string) error {
	return r.client.Del(ctx, r.key(actorID, key)).Err()
}
