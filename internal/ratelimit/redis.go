package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces rate-limit keys in Redis.
const DefaultKeyPrefix = "parallax:ratelimit:"

// RedisCounter keeps counters in Redis so limits hold across instances.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCounter counts hits in client under prefix. An empty prefix uses
// the package default.
func NewRedisCounter(client redis.Cmdable, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisCounter{client: client, prefix: prefix}
}

// Allow increments the window counter. The expiry is set only when the key
// has none, so the window starts at the first hit and is never extended.
func (c *RedisCounter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := c.prefix + key

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}

	if ttl.Val() < 0 {
		if err := c.client.PExpire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return incr.Val() <= int64(limit), nil
}
