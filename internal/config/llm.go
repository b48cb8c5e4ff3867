package config

import "time"

// LLM provider constants
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// LLMConfig selects the model provider used by extraction and mediation.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"anthropic"`
	// Timeout bounds a single model call.
	Timeout time.Duration `env:"LLM_TIMEOUT" yaml:"timeout" default:"60s"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model      string `env:"CLAUDE_MODEL" yaml:"model" default:"claude-sonnet-4-5-20250929"`
	APIBaseURL string `env:"ANTHROPIC_API_URL" yaml:"api_base_url"`
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey     string `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model      string `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4o-mini"`
	APIBaseURL string `env:"OPENAI_API_URL" yaml:"api_base_url"`
}

// GeminiConfig holds Google Gemini-specific configuration
type GeminiConfig struct {
	APIKey     string `env:"GEMINI_API_KEY" yaml:"api_key"`
	Model      string `env:"GEMINI_MODEL" yaml:"model" default:"gemini-2.5-flash"`
	APIBaseURL string `env:"GEMINI_API_URL" yaml:"api_base_url"`
}
