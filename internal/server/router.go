package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/parallax/internal/middleware"
	"github.com/lewisedginton/parallax/internal/monitoring"
	"github.com/lewisedginton/parallax/internal/ratelimit"
	"github.com/lewisedginton/parallax/pkg/httpmiddleware"
	"github.com/lewisedginton/parallax/pkg/logger"
	"github.com/lewisedginton/parallax/pkg/metrics"
)

// RouterConfig wires the API router. Service is required; nil limiters
// disable rate limiting and a nil Health skips the health routes.
type RouterConfig struct {
	Service        InsightService
	ExtractLimiter *ratelimit.Limiter
	MediateLimiter *ratelimit.Limiter
	Health         *monitoring.HealthMonitor
	Metrics        *metrics.Metrics
	Logger         logger.Logger

	StripPrefix    string
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// TrustProxyHeaders rewrites RemoteAddr from proxy headers before the
	// handlers, and so before rate limit keys are taken.
	TrustProxyHeaders bool
}

// NewRouter builds the chi router with the shared middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	api := &API{
		service:        cfg.Service,
		extractLimiter: cfg.ExtractLimiter,
		mediateLimiter: cfg.MediateLimiter,
		metrics:        cfg.Metrics,
		log:            log,
	}

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = log
	mwConfig.EnableLogging = true
	mwConfig.StripPrefix = cfg.StripPrefix
	mwConfig.EnableRealIP = cfg.TrustProxyHeaders
	mwConfig.Recoverer = middleware.Recovery(middleware.DefaultRecoveryConfig(log))
	mwConfig.Extra = append(mwConfig.Extra, cfg.Metrics.HTTPMiddleware(routePattern))
	if len(cfg.CORSOrigins) > 0 {
		mwConfig.CORS.AllowedOrigins = cfg.CORSOrigins
	}
	if cfg.RequestTimeout > 0 {
		mwConfig.Timeout = cfg.RequestTimeout
	}
	if cfg.MaxBodyBytes > 0 {
		mwConfig.MaxBodyBytes = cfg.MaxBodyBytes
	}

	r := chi.NewRouter()
	httpmiddleware.ApplyToRouter(r, mwConfig)

	r.Route("/api", func(r chi.Router) {
		r.Post("/insights/extract", api.extractHandler)
		r.Post("/mediate", api.mediateHandler)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/memory", api.memoryHandler)
			r.Patch("/memory/action-items/{itemID}", api.actionItemHandler)
			r.Get("/signals", api.signalsHandler)
		})
	})
	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	return r
}

// routePattern labels metrics by the matched chi pattern. It runs after the
// handler, when routing has filled in the pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
