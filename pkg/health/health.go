// Package health runs liveness and readiness checks and serves them over
// HTTP for container probes.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// Check is one named probe. Check returns nil when healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Check.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the name of this check.
func (c *CheckFunc) Name() string {
	return c.name
}

// Check executes the check function.
func (c *CheckFunc) Check(ctx context.Context) error {
	return c.fn(ctx)
}

// CheckResult represents the result of a single health check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker runs registered checks concurrently. A check is reported
// unhealthy only after failureThreshold consecutive failures, so a single
// blip does not pull the instance out of rotation.
type HealthChecker struct {
	livenessChecks   []Check
	readinessChecks  []Check
	timeout          time.Duration
	failureThreshold int
	failureCount     map[string]int
	logger           logger.Logger
	mu               sync.RWMutex
}

// Option is a functional option for configuring HealthChecker.
type Option func(*HealthChecker)

// WithTimeout bounds each check. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for health check operations.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) { h.logger = l }
}

// WithFailureThreshold sets the consecutive failures needed before a check
// reports unhealthy. Default 3.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New creates a new HealthChecker with the given options.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failureCount:     make(map[string]int),
		logger:           logger.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck adds a liveness check.
// Liveness checks determine if the process should be restarted.
func (h *HealthChecker) AddLivenessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, check)
}

// AddReadinessCheck adds a readiness check.
// Readiness checks determine if the service can handle requests.
func (h *HealthChecker) AddReadinessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, check)
}

// CheckLiveness executes all liveness checks and returns an error if any fail.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := append([]Check(nil), h.livenessChecks...)
	h.mu.RUnlock()
	return h.run(ctx, checks)
}

// CheckReadiness executes all readiness checks and returns an error if any fail.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := append([]Check(nil), h.readinessChecks...)
	h.mu.RUnlock()
	return h.run(ctx, checks)
}

// run executes checks concurrently. The returned error aggregates every
// unhealthy check.
func (h *HealthChecker) run(ctx context.Context, checks []Check) (*HealthStatus, error) {
	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = h.runOne(ctx, check)
		}()
	}
	wg.Wait()

	status := &HealthStatus{Healthy: true, Checks: results}
	var errs *multierror.Error
	for _, r := range results {
		if !r.Healthy {
			status.Healthy = false
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", r.Name, r.Error))
		}
	}
	return status, errs.ErrorOrNil()
}

func (h *HealthChecker) runOne(parent context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	result := CheckResult{Name: check.Name(), Healthy: true, Latency: time.Since(start)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failureCount[result.Name] = 0
		return result
	}

	h.failureCount[result.Name]++
	failures := h.failureCount[result.Name]
	fields := []logger.LogField{
		logger.StringField("check", result.Name),
		logger.ErrorField(err),
		logger.IntField("failures", failures),
	}
	if failures < h.failureThreshold {
		h.logger.Debug("Health check failed below threshold", fields...)
		return result
	}

	result.Healthy = false
	result.Error = err.Error()
	h.logger.Warn("Health check failed", fields...)
	return result
}
