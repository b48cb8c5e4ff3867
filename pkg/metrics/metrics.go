// Package metrics provides Prometheus collectors for HTTP traffic and the
// insight pipeline, served from a dedicated listener.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lewisedginton/parallax/pkg/logger"
)

const namespace = "parallax"

// Extraction outcomes used as the outcome label of ExtractionsTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeSkipped      = "skipped"
	OutcomeModelError   = "model_error"
	OutcomeMalformed    = "malformed"
	OutcomeRateLimited  = "rate_limited"
	OutcomePromptFailed = "prompt_error"
)

// Metrics owns a private registry. All methods are safe on a nil receiver so
// callers can run without metrics.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	ExtractionsTotal     *prometheus.CounterVec
	ModelCallDuration    *prometheus.HistogramVec
	PersistenceFailures  prometheus.Counter
	NotificationFailures prometheus.Counter

	log logger.Logger
}

// NewMetrics registers the HTTP and pipeline collectors on a fresh registry.
func NewMetrics(l logger.Logger) *Metrics {
	if l == nil {
		l = logger.NewNop()
	}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0, 30.0},
		}, []string{"route"}),
		ExtractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extraction requests by outcome",
		}, []string{"outcome"}),
		ModelCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Language model call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"provider"}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Memory or signal writes that failed",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Change notifications that could not be published",
		}),
	}
	m.reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ExtractionsTotal,
		m.ModelCallDuration,
		m.PersistenceFailures,
		m.NotificationFailures,
	)
	return m
}

// AddCustomMetric registers an extra collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	if m == nil {
		return
	}
	m.reg.MustRegister(c)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveExtraction counts one extraction by outcome. Safe on a nil receiver,
// as are the other Observe and Inc helpers.
func (m *Metrics) ObserveExtraction(outcome string) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveModelCall records model latency per provider.
func (m *Metrics) ObserveModelCall(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncPersistenceFailure counts a failed store write.
func (m *Metrics) IncPersistenceFailure() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

// IncNotificationFailure counts a failed event publish.
func (m *Metrics) IncNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen serves /metrics on port until ctx is cancelled. The returned
// channel yields at most one error and is closed when the listener stops.
func (m *Metrics) Listen(ctx context.Context, port int) chan error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           m.log.HTTPMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics listener: %w", err)
		}
	}()
	go func() {
		<-ctx.Done()
		m.log.Info("Stopping metrics listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	return errChan
}

// HTTPMiddleware records request counts and durations. route labels the
// request; it should be a route pattern, not the raw path, to bound
// cardinality.
func (m *Metrics) HTTPMiddleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			name := route(r)
			m.HTTPDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			m.HTTPRequests.WithLabelValues(name, strconv.Itoa(rw.statusCode)).Inc()
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
