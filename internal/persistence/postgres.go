package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/internal/persistence/sqlc"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore implements Store on the solo_memories and
// behavioral_signals tables.
type PostgresStore struct {
	db      *pgxpool.Pool
	queries *sqlc.Queries
	logger  logger.Logger
}

// NewPostgresStore uses db for every query. The pool is owned by the caller.
func NewPostgresStore(db *pgxpool.Pool, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		queries: sqlc.New(db),
		logger:  log,
	}
}

// GetMemory loads the solo memory row, returning nil when the user has none.
func (s *PostgresStore) GetMemory(ctx context.Context, userID string) (*insights.MemoryRecord, error) {
	row, err := s.queries.GetSoloMemory(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return decodeMemory(row.Memory)
}

// UpsertMemory writes the record as JSONB, replacing any existing row.
func (s *PostgresStore) UpsertMemory(ctx context.Context, userID string, record insights.MemoryRecord) error {
	return upsertMemory(ctx, s.queries, userID, record)
}

func upsertMemory(ctx context.Context, q *sqlc.Queries, userID string, record insights.MemoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	err = q.UpsertSoloMemory(ctx, sqlc.UpsertSoloMemoryParams{
		UserID:     userID,
		Memory:     data,
		LastSeenAt: timestamptz(record.LastSeenAt),
	})
	if err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	return nil
}

// UpsertSignals writes all signals in one transaction.
func (s *PostgresStore) UpsertSignals(ctx context.Context, userID string, signals []insights.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)
		for _, sig := range signals {
			value, err := json.Marshal(sig.Value)
			if err != nil {
				return fmt.Errorf("encode %s signal: %w", sig.Type, err)
			}
			err = q.UpsertBehavioralSignal(ctx, sqlc.UpsertBehavioralSignalParams{
				UserID:      userID,
				SignalType:  string(sig.Type),
				SignalValue: value,
				Confidence:  insights.ClampConfidence(sig.Confidence),
				DetectedAt:  timestamptz(sig.DetectedAt),
			})
			if err != nil {
				return fmt.Errorf("upsert %s signal: %w", sig.Type, err)
			}
		}
		return nil
	})
}

// ListSignals skips rows whose type or value no longer decodes.
func (s *PostgresStore) ListSignals(ctx context.Context, userID string) ([]insights.Signal, error) {
	rows, err := s.queries.ListBehavioralSignals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	signals := make([]insights.Signal, 0, len(rows))
	for _, row := range rows {
		value, err := insights.DecodeSignalValue(insights.SignalType(row.SignalType), row.SignalValue)
		if err != nil {
			s.logger.Warn("Skipping undecodable signal",
				logger.UserIDField(userID),
				logger.StringField("signal_type", row.SignalType),
				logger.ErrorField(err))
			continue
		}
		signals = append(signals, insights.Signal{
			Type:       value.SignalType(),
			Value:      value,
			Confidence: row.Confidence,
			DetectedAt: row.DetectedAt.Time,
		})
	}
	return signals, nil
}

// UpdateActionItemStatus locks the user's row for the read-modify-write.
func (s *PostgresStore) UpdateActionItemStatus(ctx context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error) {
	var updated insights.MemoryRecord
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		q := s.queries.WithTx(tx)
		row, err := q.GetSoloMemoryForUpdate(ctx, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("memory for user %s: %w", userID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get memory: %w", err)
		}

		record, err := decodeMemory(row.Memory)
		if err != nil {
			return err
		}
		next, ok := record.WithActionItemStatus(itemID, status)
		if !ok {
			return fmt.Errorf("action item %s: %w", itemID, ErrNotFound)
		}
		updated = next
		return upsertMemory(ctx, q, userID, next)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func decodeMemory(data []byte) (*insights.MemoryRecord, error) {
	var record insights.MemoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	return &record, nil
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
