package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/parallax/pkg/logger"
)

type pool struct{ err error }

func (p *pool) Ping(context.Context) error { return p.err }

func serve(t *testing.T, hm *HealthMonitor, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	hm.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthMonitor_Ready(t *testing.T) {
	hm := NewHealthMonitor(Config{Logger: logger.NewNop(), Postgres: &pool{}, Version: "1.2.3"})

	assert.Equal(t, http.StatusOK, serve(t, hm, "/health/live").Code)
	assert.Equal(t, http.StatusOK, serve(t, hm, "/health/ready").Code)

	rec := serve(t, hm, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Len(t, body.Readiness.Checks, 2)
}

func TestHealthMonitor_DatabaseDown(t *testing.T) {
	db := &pool{err: errors.New("connection refused")}
	hm := NewHealthMonitor(Config{Postgres: db, FailureThreshold: 1})

	assert.Equal(t, http.StatusOK, serve(t, hm, "/health/live").Code)
	rec := serve(t, hm, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = serve(t, hm, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestHealthMonitor_ShutdownDropsReadiness(t *testing.T) {
	hm := NewHealthMonitor(Config{})
	require.Equal(t, http.StatusOK, serve(t, hm, "/health/ready").Code)

	hm.MarkShuttingDown()
	rec := serve(t, hm, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting down")
	assert.Equal(t, http.StatusOK, serve(t, hm, "/health/live").Code)
}
