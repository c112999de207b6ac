package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// opTimeout caps every cache round trip so a slow Redis can never hold up
// resolution; a timed-out lookup is just a miss.
const opTimeout = 500 * time.Millisecond

// RedisCache is the Redis-backed Cache implementation.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache wraps an established Redis client.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.client.Get(opCtx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed, treating as miss",
				zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(opCtx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed",
			zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Del(ctx context.Context, key string) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(opCtx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed",
			zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.client.Incr(opCtx, key).Result()
	if err != nil {
		return 0, err
	}

	// First increment creates the key, so the window starts here.
	if val == 1 && ttl > 0 {
		if err := c.client.Expire(opCtx, key, ttl).Err(); err != nil {
			c.logger.Warn("cache expire failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	return val, nil
}
