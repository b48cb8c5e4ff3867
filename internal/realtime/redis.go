package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// DefaultChannel is the pub/sub channel memory events go to.
const DefaultChannel = "parallax:memory"

// ErrNotInitialized is returned by a nil or client-less notifier.
var ErrNotInitialized = errors.New("redis notifier not initialized")

// RedisNotifier fans memory events out over a Redis pub/sub channel.
type RedisNotifier struct {
	log     logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisNotifier publishes on channel using an existing client. The client
// is not closed by Close.
func NewRedisNotifier(rdb *goredis.Client, channel string, log logger.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{
		log:     log.WithFields(logger.StringField("component", "redis_notifier")),
		rdb:     rdb,
		channel: channel,
	}
}

// Publish encodes event as JSON and publishes it on the channel.
func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return ErrNotInitialized
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	n.log.Debug("Published event",
		logger.StringField("event_id", event.ID),
		logger.StringField("event_type", event.Type),
		logger.UserIDField(event.UserID))
	return nil
}

// Subscribe forwards events from the channel to onEvent until ctx is done.
// It returns once the subscription is confirmed. The returned channel is
// closed after the subscription has been closed and onEvent will not be
// called again; callers must wait on it before closing the client.
func (n *RedisNotifier) Subscribe(ctx context.Context, onEvent func(Event)) (<-chan struct{}, error) {
	if n == nil || n.rdb == nil {
		return nil, ErrNotInitialized
	}
	if onEvent == nil {
		return nil, errors.New("onEvent callback required")
	}

	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					n.log.Warn("Dropping malformed event payload", logger.ErrorField(err))
					continue
				}
				onEvent(event)
			}
		}
	}()
	return done, nil
}

// Close is a no-op; the client belongs to the caller.
func (n *RedisNotifier) Close() error { return nil }
