// Package monitoring wires the service's dependencies into health probes.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/lewisedginton/parallax/pkg/health"
	"github.com/lewisedginton/parallax/pkg/health/checkers"
	"github.com/lewisedginton/parallax/pkg/logger"
)

var errShuttingDown = errors.New("shutting down")

// Config lists the dependencies to probe. Nil or empty fields are skipped.
type Config struct {
	Logger           logger.Logger
	Postgres         checkers.Pinger
	Redis            redis.Cmdable
	ModelAPIURL      string
	Version          string
	Timeout          time.Duration
	FailureThreshold int
}

// HealthMonitor serves /health, /health/live and /health/ready.
type HealthMonitor struct {
	checker      *health.HealthChecker
	logger       logger.Logger
	version      string
	startTime    time.Time
	shuttingDown atomic.Bool
}

// NewHealthMonitor builds a monitor from cfg without starting it.
func NewHealthMonitor(cfg Config) *HealthMonitor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	hm := &HealthMonitor{
		checker: health.New(
			health.WithLogger(cfg.Logger),
			health.WithTimeout(cfg.Timeout),
			health.WithFailureThreshold(cfg.FailureThreshold),
		),
		logger:    cfg.Logger,
		version:   cfg.Version,
		startTime: time.Now(),
	}

	hm.checker.AddLivenessCheck(health.NewCheckFunc("process", func(context.Context) error { return nil }))

	// Shutdown must drop readiness immediately, whatever the threshold.
	hm.checker.AddReadinessCheck(health.NewCheckFunc("shutdown", func(context.Context) error {
		if hm.shuttingDown.Load() {
			return errShuttingDown
		}
		return nil
	}))
	if cfg.Postgres != nil {
		hm.checker.AddReadinessCheck(checkers.NewPostgresChecker(cfg.Postgres, ""))
	}
	if cfg.Redis != nil {
		hm.checker.AddReadinessCheck(checkers.NewRedisChecker(cfg.Redis, ""))
	}
	if cfg.ModelAPIURL != "" {
		hm.checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.ModelAPIURL, "model_api", nil))
	}
	return hm
}

// MarkShuttingDown makes readiness fail from now on.
func (hm *HealthMonitor) MarkShuttingDown() {
	hm.shuttingDown.Store(true)
}

// Register mounts the probe endpoints on r.
func (hm *HealthMonitor) Register(r chi.Router) {
	r.Get("/health", hm.HealthHandler())
	r.Get("/health/live", hm.checker.LivenessHandler())
	r.Get("/health/ready", hm.ReadinessHandler())
}

// ReadinessHandler answers 503 as soon as shutdown starts, without waiting
// for the failure threshold.
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	ready := hm.checker.ReadinessHandler()
	return func(w http.ResponseWriter, r *http.Request) {
		if hm.shuttingDown.Load() {
			writeJSON(w, http.StatusServiceUnavailable, health.HealthResponse{
				Status:  "unhealthy",
				Message: errShuttingDown.Error(),
			})
			return
		}
		ready(w, r)
	}
}

type summary struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Version   string       `json:"version"`
	Liveness  probeSummary `json:"liveness"`
	Readiness probeSummary `json:"readiness"`
}

type probeSummary struct {
	Status string               `json:"status"`
	Error  string               `json:"error,omitempty"`
	Checks []health.CheckResult `json:"checks"`
}

// HealthHandler combines liveness and readiness with uptime and version.
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		live, liveErr := hm.checker.CheckLiveness(ctx)
		ready, readyErr := hm.checker.CheckReadiness(ctx)

		body := summary{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(hm.startTime).Round(time.Second).String(),
			Version:   hm.version,
			Liveness:  probeSummary{Status: "healthy", Checks: live.Checks},
			Readiness: probeSummary{Status: "ready", Checks: ready.Checks},
		}
		code := http.StatusOK
		if liveErr != nil {
			body.Liveness.Status, body.Liveness.Error = "unhealthy", liveErr.Error()
			body.Status, code = "unhealthy", http.StatusServiceUnavailable
		}
		if readyErr != nil {
			body.Readiness.Status, body.Readiness.Error = "not_ready", readyErr.Error()
			body.Status, code = "unhealthy", http.StatusServiceUnavailable
		}
		writeJSON(w, code, body)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
