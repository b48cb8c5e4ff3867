// Package checkers provides health.Check implementations for the service's
// dependencies.
package checkers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings a Redis server.
type RedisChecker struct {
	client redis.Cmdable
	name   string
}

// NewRedisChecker defaults name to "redis".
func NewRedisChecker(client redis.Cmdable, name string) *RedisChecker {
	if name == "" {
		name = "redis"
	}
	return &RedisChecker{client: client, name: name}
}

// Name returns the name of this check.
func (r *RedisChecker) Name() string { return r.name }

// Check sends PING.
func (r *RedisChecker) Check(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
