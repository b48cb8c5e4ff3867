package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"

	"github.com/lewisedginton/parallax/pkg/logger"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowedOrigins   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig allows any http(s) origin to call the JSON API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", logger.CorrelationIDHeader},
		AllowedOrigins:   []string{"https://*", "http://*"},
		ExposedHeaders:   []string{logger.CorrelationIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// CORS returns go-chi/cors middleware for config.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedMethods:   config.AllowedMethods,
		AllowedHeaders:   config.AllowedHeaders,
		AllowedOrigins:   config.AllowedOrigins,
		ExposedHeaders:   config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}

// Security adds the secure package's headers; nil opts uses API defaults.
func Security(opts *secure.Options) func(http.Handler) http.Handler {
	if opts == nil {
		opts = &secure.Options{
			FrameDeny:          true,
			ContentTypeNosniff: true,
			ReferrerPolicy:     "no-referrer",
		}
	}
	return secure.New(*opts).Handler
}
