package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/parallax/internal/extraction"
	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/internal/models"
	modelmocks "github.com/lewisedginton/parallax/internal/models/mocks"
	"github.com/lewisedginton/parallax/internal/monitoring"
	"github.com/lewisedginton/parallax/internal/persistence"
	"github.com/lewisedginton/parallax/internal/prompt"
	"github.com/lewisedginton/parallax/internal/ratelimit"
	"github.com/lewisedginton/parallax/pkg/logger"
	"github.com/lewisedginton/parallax/pkg/metrics"
)

type fakeService struct {
	extract   func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error)
	mediate   func(context.Context, extraction.MediateRequest) (*insights.NVCAnalysis, error)
	memory    func(context.Context, string) (*insights.MemoryRecord, error)
	signals   func(context.Context, string) ([]insights.Signal, error)
	setStatus func(context.Context, string, string, insights.ActionItemStatus) (*insights.MemoryRecord, error)
}

func (f *fakeService) Extract(ctx context.Context, req extraction.ExtractRequest) (*insights.MemoryRecord, error) {
	return f.extract(ctx, req)
}

func (f *fakeService) Mediate(ctx context.Context, req extraction.MediateRequest) (*insights.NVCAnalysis, error) {
	return f.mediate(ctx, req)
}

func (f *fakeService) Memory(ctx context.Context, userID string) (*insights.MemoryRecord, error) {
	return f.memory(ctx, userID)
}

func (f *fakeService) Signals(ctx context.Context, userID string) ([]insights.Signal, error) {
	return f.signals(ctx, userID)
}

func (f *fakeService) SetActionItemStatus(ctx context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error) {
	return f.setStatus(ctx, userID, itemID, status)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const twoTurns = `{"messages":[{"sender":"person_a","content":"hi"},{"sender":"person_b","content":"hello"}],"user_id":"u1"}`

func TestExtractHandler(t *testing.T) {
	t.Run("returns insights", func(t *testing.T) {
		var got extraction.ExtractRequest
		svc := &fakeService{extract: func(_ context.Context, req extraction.ExtractRequest) (*insights.MemoryRecord, error) {
			got = req
			return &insights.MemoryRecord{Themes: []string{"trust"}}, nil
		}}
		rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodPost, "/api/insights/extract", twoTurns)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[extractResponse](t, rec)
		require.NotNil(t, body.Insights)
		assert.Equal(t, []string{"trust"}, body.Insights.Themes)
		assert.Equal(t, "u1", got.UserID)
		assert.Len(t, got.Messages, 2)
	})

	t.Run("null insights", func(t *testing.T) {
		svc := &fakeService{extract: func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error) {
			return nil, nil
		}}
		rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodPost, "/api/insights/extract", twoTurns)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"insights":null}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, NewRouter(RouterConfig{Service: &fakeService{}}), http.MethodPost, "/api/insights/extract", `{"messages":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid request", func(t *testing.T) {
		svc := &fakeService{extract: func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error) {
			return nil, extraction.ErrInvalidRequest
		}}
		rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodPost, "/api/insights/extract", twoTurns)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unexpected error degrades to null", func(t *testing.T) {
		svc := &fakeService{extract: func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error) {
			return nil, errors.New("boom")
		}}
		rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodPost, "/api/insights/extract", twoTurns)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"insights":null}`, rec.Body.String())
	})
}

func TestExtractHandler_RateLimited(t *testing.T) {
	calls := 0
	svc := &fakeService{extract: func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error) {
		calls++
		return &insights.MemoryRecord{}, nil
	}}
	m := metrics.NewMetrics(logger.NewNop())
	router := NewRouter(RouterConfig{
		Service:        svc,
		ExtractLimiter: ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), 1, time.Minute, logger.NewNop()),
		Metrics:        m,
	})

	first := do(t, router, http.MethodPost, "/api/insights/extract", twoTurns)
	second := do(t, router, http.MethodPost, "/api/insights/extract", twoTurns)

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"insights":null}`, second.Body.String())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(metrics.OutcomeRateLimited)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/insights/extract", "200")))
}

func TestLimiters_SharedCounterKeepsRoutesApart(t *testing.T) {
	svc := &fakeService{
		extract: func(context.Context, extraction.ExtractRequest) (*insights.MemoryRecord, error) {
			return &insights.MemoryRecord{Themes: []string{"money"}}, nil
		},
		mediate: func(context.Context, extraction.MediateRequest) (*insights.NVCAnalysis, error) {
			return &insights.NVCAnalysis{}, nil
		},
	}
	counter := ratelimit.NewMemoryCounter()
	router := NewRouter(RouterConfig{
		Service:        svc,
		ExtractLimiter: ratelimit.NewLimiter(counter, 1, time.Minute, logger.NewNop()),
		MediateLimiter: ratelimit.NewLimiter(counter, 1, time.Minute, logger.NewNop()),
	})

	rec := do(t, router, http.MethodPost, "/api/mediate", `{"message":"hi","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/insights/extract", twoTurns)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[extractResponse](t, rec)
	require.NotNil(t, body.Insights, "mediate hits do not spend the extract budget")
	assert.Equal(t, []string{"money"}, body.Insights.Themes)

	rec = do(t, router, http.MethodPost, "/api/mediate", `{"message":"hi","user_id":"u1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMediateHandler(t *testing.T) {
	svc := &fakeService{mediate: func(_ context.Context, req extraction.MediateRequest) (*insights.NVCAnalysis, error) {
		if req.Message == "" {
			return nil, extraction.ErrInvalidRequest
		}
		return &insights.NVCAnalysis{Feeling: "hurt", Temperature: 0.6}, nil
	}}
	router := NewRouter(RouterConfig{
		Service:        svc,
		MediateLimiter: ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), 2, 30*time.Second, logger.NewNop()),
	})

	rec := do(t, router, http.MethodPost, "/api/mediate", `{"message":"You never listen","sender":"person_a","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[mediateResponse](t, rec)
	require.NotNil(t, body.Analysis)
	assert.Equal(t, "hurt", body.Analysis.Feeling)

	rec = do(t, router, http.MethodPost, "/api/mediate", `{"message":"","user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/mediate", `{"message":"again","user_id":"u1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	rec = do(t, router, http.MethodPost, "/api/mediate", `{"message":"other user","user_id":"u2"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per key")
}

func TestMemoryHandlers(t *testing.T) {
	record := &insights.MemoryRecord{
		ActionItems: []insights.ActionItem{{ID: "walk", Text: "Take a walk", Status: insights.ActionItemSuggested}},
	}
	svc := &fakeService{
		memory: func(_ context.Context, userID string) (*insights.MemoryRecord, error) {
			if userID != "u1" {
				return nil, persistence.ErrNotFound
			}
			return record, nil
		},
		signals: func(context.Context, string) ([]insights.Signal, error) {
			return nil, nil
		},
		setStatus: func(_ context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error) {
			if itemID != "walk" {
				return nil, persistence.ErrNotFound
			}
			updated := *record
			updated.ActionItems = []insights.ActionItem{{ID: "walk", Text: "Take a walk", Status: status}}
			return &updated, nil
		},
	}
	router := NewRouter(RouterConfig{Service: svc})

	rec := do(t, router, http.MethodGet, "/api/users/u1/memory", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "walk", decode[memoryResponse](t, rec).Memory.ActionItems[0].ID)

	rec = do(t, router, http.MethodGet, "/api/users/nobody/memory", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/u1/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"signals":[]}`, rec.Body.String())

	rec = do(t, router, http.MethodPatch, "/api/users/u1/memory/action-items/walk", `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, insights.ActionItemDone, decode[memoryResponse](t, rec).Memory.ActionItems[0].Status)

	rec = do(t, router, http.MethodPatch, "/api/users/u1/memory/action-items/walk", `{"status":"finished"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/users/u1/memory/action-items/missing", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreErrorIs500(t *testing.T) {
	svc := &fakeService{memory: func(context.Context, string) (*insights.MemoryRecord, error) {
		return nil, errors.New("connection refused")
	}}
	rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodGet, "/api/users/u1/memory", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRouter_PanicRecovered(t *testing.T) {
	svc := &fakeService{signals: func(context.Context, string) ([]insights.Signal, error) {
		panic("kaboom")
	}}
	rec := do(t, NewRouter(RouterConfig{Service: svc}), http.MethodGet, "/api/users/u1/signals", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_HealthAndHeaders(t *testing.T) {
	health := monitoring.NewHealthMonitor(monitoring.Config{})
	router := NewRouter(RouterConfig{Service: &fakeService{}, Health: health, StripPrefix: "/parallax"})

	rec := do(t, router, http.MethodGet, "/parallax/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(t, router, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	health.MarkShuttingDown()
	rec = do(t, router, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.50")

	assert.Equal(t, "user:u1", rateLimitKey(req, " u1 "))
	assert.Equal(t, "ip:10.0.0.7", rateLimitKey(req, ""))
}

func TestMediateHandler_ForwardedForDoesNotResetLimit(t *testing.T) {
	mediate := func(router http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/mediate", strings.NewReader(`{"message":"hi"}`))
		req.RemoteAddr = "198.51.100.7:40000"
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	svc := &fakeService{mediate: func(context.Context, extraction.MediateRequest) (*insights.NVCAnalysis, error) {
		return &insights.NVCAnalysis{}, nil
	}}
	newRouter := func(trust bool) http.Handler {
		return NewRouter(RouterConfig{
			Service:           svc,
			MediateLimiter:    ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), 1, time.Minute, logger.NewNop()),
			TrustProxyHeaders: trust,
		})
	}

	direct := newRouter(false)
	assert.Equal(t, http.StatusOK, mediate(direct, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, mediate(direct, "203.0.113.2"))

	proxied := newRouter(true)
	assert.Equal(t, http.StatusOK, mediate(proxied, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, mediate(proxied, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, mediate(proxied, "203.0.113.2"))
}

// End to end through the real pipeline with a scripted model.
func TestRouter_ExtractThenReadMemory(t *testing.T) {
	model := modelmocks.NewModel(t)
	model.EXPECT().Provider().Return("anthropic").Maybe()
	model.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(`{"themes":["money"],"actionItems":[{"id":"budget","text":"Make a shared budget"}]}`, nil).
		Once()

	service, err := extraction.NewService(extraction.Config{
		Model:   model,
		Builder: prompt.NewBuilder(),
		Store:   persistence.NewMemoryStore(),
		Logger:  logger.NewNop(),
	})
	require.NoError(t, err)
	router := NewRouter(RouterConfig{Service: service})

	rec := do(t, router, http.MethodPost, "/api/insights/extract", twoTurns)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"money"}, decode[extractResponse](t, rec).Insights.Themes)

	rec = do(t, router, http.MethodPatch, "/api/users/u1/memory/action-items/budget", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/u1/memory", "")
	require.Equal(t, http.StatusOK, rec.Code)
	memory := decode[memoryResponse](t, rec).Memory
	assert.Equal(t, insights.ActionItemAccepted, memory.ActionItems[0].Status)

	// A single turn never reaches the model.
	rec = do(t, router, http.MethodPost, "/api/insights/extract", `{"messages":[{"sender":"person_a","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"insights":null}`, rec.Body.String())
	model.AssertNumberOfCalls(t, "Complete", 1)
}

var _ models.Model = (*timeoutModel)(nil)

func TestWithTimeout(t *testing.T) {
	model := modelmocks.NewModel(t)
	model.EXPECT().Complete(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ models.Request) (string, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
			return "ok", nil
		}).Once()

	out, err := withTimeout(model, time.Second).Complete(context.Background(), models.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Same(t, model, withTimeout(model, 0))
}
