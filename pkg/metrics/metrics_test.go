package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/parallax/pkg/logger"
)

func TestMetrics_PipelineCollectors(t *testing.T) {
	m := NewMetrics(logger.NewNop())

	m.ObserveExtraction(OutcomeSuccess)
	m.ObserveExtraction(OutcomeSuccess)
	m.ObserveExtraction(OutcomeMalformed)
	m.IncPersistenceFailure()
	m.ObserveModelCall("anthropic", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(OutcomeMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ModelCallDuration))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction(OutcomeSuccess)
		m.ObserveModelCall("openai", time.Second)
		m.IncPersistenceFailure()
		m.IncNotificationFailure()
	})

	called := false
	h := m.HTTPMiddleware(func(*http.Request) string { return "x" })(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestMetrics_HTTPMiddleware(t *testing.T) {
	m := NewMetrics(logger.NewNop())
	route := func(*http.Request) string { return "/api/mediate" }

	ok := m.HTTPMiddleware(route)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	limited := m.HTTPMiddleware(route)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	for i := 0; i < 3; i++ {
		ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/mediate", nil))
	}
	limited.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/mediate", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/mediate", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/mediate", "429")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(logger.NewNop())
	m.ObserveExtraction(OutcomeSkipped)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `parallax_extractions_total{outcome="skipped"} 1`), body)
	assert.Contains(t, body, "parallax_persistence_failures_total 0")
}
