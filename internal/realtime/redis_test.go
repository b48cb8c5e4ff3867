package realtime

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// newTestRedis connects to PARALLAX_TEST_REDIS_URL, or starts a disposable
// Redis container.
func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis tests in short mode")
	}
	ctx := context.Background()

	url := os.Getenv("PARALLAX_TEST_REDIS_URL")
	if url == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
			},
			Started: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = container.Terminate(context.Background())
		})
		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "6379/tcp")
		require.NoError(t, err)
		url = fmt.Sprintf("redis://%s:%s/0", host, port.Port())
	}

	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	return goredis.NewClient(opts)
}

func TestRedisNotifier_PublishSubscribe(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewRedisNotifier(rdb, fmt.Sprintf("parallax:test:%d", time.Now().UnixNano()), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	done, err := n.Subscribe(ctx, func(e Event) {
		received <- e
	})
	require.NoError(t, err)

	sent := NewEvent(EventMemoryUpdated, "u1", time.Now())
	require.NoError(t, n.Publish(ctx, sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "u1", got.UserID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop after cancellation")
	}

	// Closing the client only after done cannot race the subscriber.
	assert.NoError(t, rdb.Close())
}
