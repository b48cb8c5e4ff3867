package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucketKey struct {
	key    string
	limit  int
	window time.Duration
}

// MemoryCounter is a single-process Counter. Each key gets a token bucket
// that holds limit tokens and refills at limit per window, so a burst of
// limit hits is allowed and the long-run rate matches the Redis counter.
type MemoryCounter struct {
	mu        sync.Mutex
	buckets   map[bucketKey]*rate.Limiter
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCounter returns an empty counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[bucketKey]*rate.Limiter), now: time.Now}
}

// Allow takes one token from key's bucket. It never returns an error.
func (c *MemoryCounter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	k := bucketKey{key: key, limit: limit, window: window}
	bucket, ok := c.buckets[k]
	if !ok {
		bucket = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		c.buckets[k] = bucket
	}
	allowed := bucket.AllowN(now, 1)

	if now.Sub(c.lastSweep) >= window {
		c.sweep(now)
	}
	return allowed, nil
}

// sweep drops buckets that have refilled completely; a fresh bucket would
// behave the same, so idle keys do not accumulate.
func (c *MemoryCounter) sweep(now time.Time) {
	c.lastSweep = now
	for k, bucket := range c.buckets {
		if bucket.TokensAt(now) >= float64(bucket.Burst()) {
			delete(c.buckets, k)
		}
	}
}

// Len reports how many keys are tracked.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}
