// Package config defines the Parallax application configuration.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	pkgconfig "github.com/lewisedginton/parallax/pkg/config"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"parallax"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	HTTP     pkgconfig.HTTPServerConfig `yaml:"http"`
	Logging  pkgconfig.LoggingConfig    `yaml:"logging"`
	Metrics  pkgconfig.MetricsConfig    `yaml:"metrics"`
	Database pkgconfig.DatabaseConfig   `yaml:"database"`
	Redis    pkgconfig.RedisConfig      `yaml:"redis"`

	LLM       LLMConfig       `yaml:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`

	Extraction    ExtractionConfig    `yaml:"extraction"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	PromptStorage PromptStorageConfig `yaml:"prompt_storage"`
	Health        HealthConfig        `yaml:"health"`
}

// Load reads path (optional, may be empty) and the environment into a
// validated AppConfig.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := pkgconfig.GetConfig(&cfg, path, path == ""); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result *multierror.Error

	for _, v := range []pkgconfig.Validator{c.HTTP, c.Logging, c.Metrics, c.Database, c.Redis} {
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	switch c.LLM.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("anthropic api key is required when llm provider is %q", c.LLM.Provider))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("openai api key is required when llm provider is %q", c.LLM.Provider))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("gemini api key is required when llm provider is %q", c.LLM.Provider))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("llm provider must be one of [anthropic, openai, gemini], got %q", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("llm timeout must be greater than 0"))
	}

	if c.Extraction.MaxTokens <= 0 {
		result = multierror.Append(result, fmt.Errorf("extraction max_tokens must be greater than 0"))
	}
	if c.RateLimit.ExtractLimit < 0 || c.RateLimit.MediateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("rate limits cannot be negative"))
	}
	if (c.RateLimit.ExtractLimit > 0 || c.RateLimit.MediateLimit > 0) && c.RateLimit.Window <= 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit window must be greater than 0"))
	}

	switch c.PromptStorage.Backend {
	case "local", "git":
		if c.PromptStorage.LocalDir == "" {
			result = multierror.Append(result, fmt.Errorf("prompt_storage local_dir is required for the %s backend", c.PromptStorage.Backend))
		}
	case "s3":
		if c.PromptStorage.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("prompt_storage s3_bucket is required for the s3 backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("prompt_storage backend must be local, git or s3, got %q", c.PromptStorage.Backend))
	}

	if c.Health.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("health timeout must be greater than 0"))
	}

	return result.ErrorOrNil()
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.Level)
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return slices.Contains([]string{"production", "prod"}, strings.ToLower(c.Environment))
}

// ModelName returns the model configured for the selected provider.
func (c *AppConfig) ModelName() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.OpenAI.Model
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return c.Anthropic.Model
	}
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.HTTP.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("model", c.ModelName()),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.BoolField("metrics_enabled", c.Metrics.Enabled),
		logger.BoolField("database_configured", c.Database.Enabled()),
		logger.BoolField("redis_configured", c.Redis.Enabled()),
		logger.StringField("prompt_storage", c.PromptStorage.Backend),
		logger.IntField("rate_limit_extract", c.RateLimit.ExtractLimit),
		logger.IntField("rate_limit_mediate", c.RateLimit.MediateLimit),
	)
}
