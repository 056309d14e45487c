package cache

import (
	"context"
	"time"

	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/redis"
)

// RedisCache backs the Cache interface with Redis so resolved chain
// snapshots survive process restarts and are shared across replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisCache creates a Redis-backed cache with a key prefix
func NewRedisCache(client *redis.Client, prefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := c.client.Get(ctx, c.prefix+key)
	if err != nil {
		// Degrade to a cache miss so reads keep working without Redis
		c.log.Warn("redis cache get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	return []byte(val), true, nil
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.SetWithExpiry(ctx, c.prefix+key, string(value), ttl); err != nil {
		c.log.Warn("redis cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.prefix+key)
}

// Close is a no-op; the underlying client is owned by the bootstrap
func (c *RedisCache) Close() error {
	return nil
}
