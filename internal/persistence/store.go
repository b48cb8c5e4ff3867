// Package persistence stores memory records and behavioural signals. The
// Postgres implementation is used in production; the in-memory one backs
// tests and local runs without a database.
package persistence

import (
	"context"
	"errors"

	"github.com/lewisedginton/parallax/internal/insights"
)

// ErrNotFound is returned when a user or action item does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary of the extraction pipeline. Writes are
// last-write-wins.
//
//go:generate mockery --name Store --output ./mocks --with-expecter
type Store interface {
	// GetMemory returns nil, nil when the user has no record yet.
	GetMemory(ctx context.Context, userID string) (*insights.MemoryRecord, error)
	UpsertMemory(ctx context.Context, userID string, record insights.MemoryRecord) error
	// UpsertSignals inserts or replaces one row per (user, signal type).
	UpsertSignals(ctx context.Context, userID string, signals []insights.Signal) error
	ListSignals(ctx context.Context, userID string) ([]insights.Signal, error)
	// UpdateActionItemStatus is the only path that changes an existing
	// item's status. It returns ErrNotFound for an unknown user or item.
	UpdateActionItemStatus(ctx context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error)
}
