// Package httpmiddleware assembles the chi middleware stack shared by the
// HTTP servers.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// Config selects which middleware ApplyToRouter installs.
type Config struct {
	Logger       logger.Logger
	StripPrefix  string
	CORS         *CORSConfig
	Security     *secure.Options
	Timeout      time.Duration
	MaxBodyBytes int64

	// Recoverer replaces chi's Recoverer when set.
	Recoverer func(http.Handler) http.Handler
	// Extra middleware installed after logging and recovery.
	Extra []func(http.Handler) http.Handler

	EnableCorrelationID bool
	EnableLogging       bool
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableCompression   bool
	EnableHeartbeat     bool
	EnableRealIP        bool
	EnableTimeout       bool
}

// DefaultConfig enables everything except logging, which needs a Logger.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:         &corsConfig,
		Timeout:      60 * time.Second,
		MaxBodyBytes: 1 << 20,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableHeartbeat:     true,
		EnableRealIP:        true,
		EnableTimeout:       true,
	}
}

// WithLogger applies DefaultConfig with request logging enabled.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}

// ApplyToRouter installs the middleware in execution order, outermost
// first: correlation id, security headers, real IP, logging, recovery,
// extras, prefix stripping, CORS, body limit, timeout, compression and the
// /ping heartbeat.
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}
	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}
	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}
	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}
	if config.EnableRecovery {
		if config.Recoverer != nil {
			router.Use(config.Recoverer)
		} else {
			router.Use(middleware.Recoverer)
		}
	}
	for _, mw := range config.Extra {
		router.Use(mw)
	}
	if config.StripPrefix != "" {
		router.Use(StripPrefix(config.StripPrefix))
	}
	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}
	if config.MaxBodyBytes > 0 {
		router.Use(middleware.RequestSize(config.MaxBodyBytes))
	}
	if config.EnableTimeout && config.Timeout > 0 {
		router.Use(middleware.Timeout(config.Timeout))
	}
	if config.EnableCompression {
		router.Use(middleware.Compress(5))
	}
	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}
