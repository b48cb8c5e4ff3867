package checkers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type fakePool struct{ err error }

func (f fakePool) Ping(context.Context) error { return f.err }

func TestPostgresChecker(t *testing.T) {
	c := NewPostgresChecker(fakePool{}, "")
	assert.Equal(t, "postgres", c.Name())
	assert.NoError(t, c.Check(context.Background()))

	c = NewPostgresChecker(fakePool{err: errors.New("dial tcp: refused")}, "db")
	assert.Equal(t, "db", c.Name())
	assert.ErrorContains(t, c.Check(context.Background()), "postgres ping failed")
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisChecker(client, "")
	assert.Equal(t, "redis", c.Name())
	assert.ErrorContains(t, c.Check(context.Background()), "redis ping failed")
}

func TestHTTPChecker(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL, "model_api", nil)
	assert.Equal(t, "model_api", c.Name())
	assert.NoError(t, c.Check(context.Background()))

	status = http.StatusUnauthorized
	assert.NoError(t, c.Check(context.Background()), "4xx means reachable")

	status = http.StatusBadGateway
	assert.ErrorContains(t, c.Check(context.Background()), "502")

	assert.Equal(t, "http://x", NewHTTPChecker("http://x", "", nil).Name())
}
