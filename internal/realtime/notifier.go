// Package realtime publishes memory change events so connected clients can
// refresh their view of a user's insights.
package realtime

import (
	"context"
	"time"

	"github.com/lewisedginton/parallax/pkg/prefixed_uuid"
)

const (
	EventMemoryUpdated     = "memory.updated"
	EventActionItemUpdated = "action_item.updated"
)

// EventIDPrefix prefixes every event id, e.g. "evt-7b0c...".
const EventIDPrefix = "evt"

// Event is the payload published for each change.
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	ItemID string    `json:"itemId,omitempty"`
	At     time.Time `json:"at"`
}

// NewEvent stamps a fresh id and time on an event of the given type.
func NewEvent(eventType, userID string, at time.Time) Event {
	return Event{
		ID:     prefixed_uuid.New(EventIDPrefix).String(),
		Type:   eventType,
		UserID: userID,
		At:     at.UTC(),
	}
}

// Notifier delivers events. Publishing is best effort; callers log errors
// and carry on.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Publish and Close do nothing.
func (NopNotifier) Publish(context.Context, Event) error { return nil }
func (NopNotifier) Close() error                         { return nil }
