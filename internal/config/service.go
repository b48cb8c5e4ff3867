package config

import "time"

// ExtractionConfig tunes the extraction and mediation calls.
type ExtractionConfig struct {
	MaxTokens int64 `env:"EXTRACTION_MAX_TOKENS" yaml:"max_tokens" default:"2048"`
}

// RateLimitConfig bounds requests per key (user id or client IP) in a fixed
// window. A limit of 0 disables the check for that route.
type RateLimitConfig struct {
	ExtractLimit int           `env:"RATE_LIMIT_EXTRACT" yaml:"extract_limit" default:"30"`
	MediateLimit int           `env:"RATE_LIMIT_MEDIATE" yaml:"mediate_limit" default:"20"`
	Window       time.Duration `env:"RATE_LIMIT_WINDOW" yaml:"window" default:"1m"`
}

// HealthConfig holds health check configuration
type HealthConfig struct {
	Timeout          time.Duration `env:"HEALTH_TIMEOUT" yaml:"timeout" default:"5s"`
	FailureThreshold int           `env:"HEALTH_FAILURE_THRESHOLD" yaml:"failure_threshold" default:"3"`
	// ModelAPIURL is probed by the readiness check when set.
	ModelAPIURL string `env:"HEALTH_MODEL_API_URL" yaml:"model_api_url"`
}
