// Package redis provides the Redis-backed cross-job lead suppression cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRetention = 30 * 24 * time.Hour

// KeyCache remembers lead dedup keys across jobs so repeat queries do not
// re-contact the same businesses. Entries expire after the retention window.
type KeyCache struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// Config holds options for the key cache.
type Config struct {
	Prefix    string
	Retention time.Duration
}

// NewKeyCache creates a KeyCache over the given Redis client.
func NewKeyCache(client redis.UniversalClient, cfg Config) *KeyCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "leadgrid:seen:"
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	return &KeyCache{client: client, prefix: prefix, retention: retention}
}

// Seen reports which of the given dedup keys were already recorded.
func (c *KeyCache) Seen(ctx context.Context, keys []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return seen, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}

	values, err := c.client.MGet(ctx, prefixed...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, v := range values {
		seen[keys[i]] = v != nil
	}
	return seen, nil
}

// Record remembers keys for the retention window.
func (c *KeyCache) Record(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Set(ctx, c.prefix+k, "1", c.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record keys: %w", err)
	}
	return nil
}

// Health checks the Redis connection.
func (c *KeyCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NoopKeyCache is used when Redis is not configured; nothing is ever seen.
type NoopKeyCache struct{}

// Seen reports every key as unseen.
func (NoopKeyCache) Seen(_ context.Context, keys []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = false
	}
	return seen, nil
}

// Record does nothing.
func (NoopKeyCache) Record(context.Context, []string) error {
	return nil
}
