// Package ratelimit provides keyed fixed-window request counters shared by
// every instance of the service.
package ratelimit

import (
	"context"
	"time"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// Counter counts hits per key in fixed windows.
type Counter interface {
	// Allow records one hit for key and reports whether it is within limit
	// for the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Limiter applies one limit and window to a Counter. Counter failures are
// logged and the request is allowed.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	log     logger.Logger
}

// NewLimiter returns a limiter; a non-positive limit disables limiting.
func NewLimiter(counter Counter, limit int, window time.Duration, log logger.Logger) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window, log: log}
}

// Allow reports whether the request identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return true
	}
	ok, err := l.counter.Allow(ctx, key, l.limit, l.window)
	if err != nil {
		l.log.Warn("Rate limit counter unavailable, allowing request",
			logger.StringField("key", key),
			logger.ErrorField(err))
		return true
	}
	return ok
}

// Window is the length of one counting window; zero when limiting is off.
func (l *Limiter) Window() time.Duration {
	if l == nil || l.limit <= 0 {
		return 0
	}
	return l.window
}
