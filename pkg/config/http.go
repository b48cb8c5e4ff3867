package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// HTTPServerConfig holds the API listener settings.
type HTTPServerConfig struct {
	Port            int           `env:"HTTP_PORT" yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" yaml:"write_timeout" default:"90s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" yaml:"request_timeout" default:"75s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" default:"20s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" yaml:"max_body_bytes" default:"1048576"`
	StripPrefix     string        `env:"HTTP_STRIP_PREFIX" yaml:"strip_prefix"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" yaml:"cors_origins" default:"https://*,http://*"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" yaml:"trust_proxy_headers" default:"false"`
}

// Validate checks the port range and request limits.
func (h HTTPServerConfig) Validate() error {
	var result *multierror.Error
	if h.Port < 1 || h.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("http port must be between 1-65535, got %d", h.Port))
	}
	if h.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("http request timeout must be positive"))
	}
	if h.WriteTimeout > 0 && h.WriteTimeout < h.RequestTimeout {
		result = multierror.Append(result, fmt.Errorf("http write timeout (%s) must not be shorter than the request timeout (%s)", h.WriteTimeout, h.RequestTimeout))
	}
	if h.MaxBodyBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("http max body bytes must be positive"))
	}
	return result.ErrorOrNil()
}
