package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// newTestPool connects to PARALLAX_TEST_DATABASE_URL, or starts a disposable
// Postgres container, and applies the migrations.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres tests in short mode")
	}
	ctx := context.Background()

	connString := os.Getenv("PARALLAX_TEST_DATABASE_URL")
	if connString == "" {
		connString = startPostgres(ctx, t)
	}

	pool, err := Connect(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrations := NewMigrationManager(pool, logger.NewNop())
	require.NoError(t, migrations.RunMigrations())
	return pool
}

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "parallax",
				"POSTGRES_USER":     "parallax",
				"POSTGRES_PASSWORD": "parallax",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(2*time.Minute),
				wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://parallax:parallax@%s:%s/parallax?sslmode=disable", host, port.Port())
}

// uniqueUser keeps tests independent when they share a database.
func uniqueUser(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
}

func TestPostgresStore(t *testing.T) {
	pool := newTestPool(t)
	store := NewPostgresStore(pool, logger.NewNop())
	ctx := context.Background()

	t.Run("absent memory", func(t *testing.T) {
		record, err := store.GetMemory(ctx, uniqueUser(t))
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("memory round trips through JSONB", func(t *testing.T) {
		user := uniqueUser(t)
		record := insights.MemoryRecord{
			Identity:         insights.Identity{Name: "Sam", Bio: "Nurse, two kids"},
			Themes:           []string{"work stress", "chores"},
			Patterns:         []string{"withdraws when criticised"},
			Values:           []string{"fairness"},
			Strengths:        []string{"empathy"},
			CurrentSituation: "Night shifts this month",
			EmotionalState:   "tired",
			ActionItems: []insights.ActionItem{
				{ID: "chore-rota", Text: "Draft a chore rota", Status: insights.ActionItemAccepted},
			},
			LastSeenAt: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		}
		require.NoError(t, store.UpsertMemory(ctx, user, record))

		got, err := store.GetMemory(ctx, user)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record, *got)

		// last write wins
		record.Themes = []string{"sleep"}
		require.NoError(t, store.UpsertMemory(ctx, user, record))
		got, err = store.GetMemory(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{"sleep"}, got.Themes)
	})

	t.Run("signals upsert one row per type", func(t *testing.T) {
		user := uniqueUser(t)
		detected := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

		require.NoError(t, store.UpsertSignals(ctx, user, []insights.Signal{
			{Type: insights.SignalCoreNeeds, Value: insights.CoreNeeds{Needs: []string{"rest"}}, Confidence: 0.6, DetectedAt: detected},
			{Type: insights.SignalAttachmentStyle, Value: insights.AttachmentStyle{Style: "anxious"}, Confidence: 0.5, DetectedAt: detected},
		}))
		require.NoError(t, store.UpsertSignals(ctx, user, []insights.Signal{
			{Type: insights.SignalAttachmentStyle, Value: insights.AttachmentStyle{Style: "secure"}, Confidence: 1.4, DetectedAt: detected.Add(time.Hour)},
		}))

		signals, err := store.ListSignals(ctx, user)
		require.NoError(t, err)
		require.Len(t, signals, 2)

		assert.Equal(t, insights.SignalAttachmentStyle, signals[0].Type)
		assert.Equal(t, insights.AttachmentStyle{Style: "secure"}, signals[0].Value)
		assert.Equal(t, 1.0, signals[0].Confidence, "confidence is clamped before the CHECK constraint")
		assert.True(t, detected.Add(time.Hour).Equal(signals[0].DetectedAt))

		assert.Equal(t, insights.SignalCoreNeeds, signals[1].Type)
		assert.Equal(t, insights.CoreNeeds{Needs: []string{"rest"}}, signals[1].Value)
	})

	t.Run("rows that no longer decode are skipped", func(t *testing.T) {
		user := uniqueUser(t)
		_, err := pool.Exec(ctx,
			`INSERT INTO behavioral_signals (user_id, signal_type, signal_value, confidence, detected_at)
			 VALUES ($1, 'horoscope', '{"sign":"leo"}', 0.5, now())`, user)
		require.NoError(t, err)

		signals, err := store.ListSignals(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, signals)
	})

	t.Run("action item status", func(t *testing.T) {
		user := uniqueUser(t)

		_, err := store.UpdateActionItemStatus(ctx, user, "walk", insights.ActionItemDone)
		assert.True(t, errors.Is(err, ErrNotFound))

		require.NoError(t, store.UpsertMemory(ctx, user, insights.MemoryRecord{
			ActionItems: []insights.ActionItem{{ID: "walk", Text: "Go for a walk", Status: insights.ActionItemSuggested}},
			LastSeenAt:  time.Now().UTC(),
		}))

		updated, err := store.UpdateActionItemStatus(ctx, user, "walk", insights.ActionItemDone)
		require.NoError(t, err)
		assert.Equal(t, insights.ActionItemDone, updated.ActionItems[0].Status)

		stored, err := store.GetMemory(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, insights.ActionItemDone, stored.ActionItems[0].Status)

		_, err = store.UpdateActionItemStatus(ctx, user, "missing", insights.ActionItemDone)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("concurrent status updates do not lose writes", func(t *testing.T) {
		user := uniqueUser(t)
		ids := []string{"a", "b", "c", "d", "e", "f"}
		items := make([]insights.ActionItem, len(ids))
		for i, id := range ids {
			items[i] = insights.ActionItem{ID: id, Text: "item " + id, Status: insights.ActionItemSuggested}
		}
		require.NoError(t, store.UpsertMemory(ctx, user, insights.MemoryRecord{ActionItems: items, LastSeenAt: time.Now().UTC()}))

		var wg sync.WaitGroup
		errs := make([]error, len(ids))
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = store.UpdateActionItemStatus(ctx, user, id, insights.ActionItemAccepted)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		stored, err := store.GetMemory(ctx, user)
		require.NoError(t, err)
		for _, item := range stored.ActionItems {
			assert.Equal(t, insights.ActionItemAccepted, item.Status, item.ID)
		}
	})
}
