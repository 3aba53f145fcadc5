package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed response store for runs that share a cache
// across machines.
//
// Redis data layout:
//   - Key: "{keyPrefix}:{cache key}"
//   - Type: string, value is the raw completion text
//   - TTL: optional expiry (0 = keep forever)
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and returns a store. ttl of zero
// disables expiry.
func NewRedisStore(redisURL, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "clinagen:cache"
	}
	return &RedisStore{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

func (r *RedisStore) key(key string) string {
	return r.keyPrefix + ":" + key
}

// Get reads the stored response for key.
func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Put stores the response under key. A concurrent write for the same key
// overwrites with identical content, which is harmless.
func (r *RedisStore) Put(ctx context.Context, key, response string) error {
	if err := r.client.Set(ctx, r.key(key), response, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
