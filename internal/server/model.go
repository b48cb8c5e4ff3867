package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"

	appconfig "github.com/lewisedginton/parallax/internal/config"
	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/internal/models/anthropic"
	"github.com/lewisedginton/parallax/internal/models/gemini"
	"github.com/lewisedginton/parallax/internal/models/openai"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// NewModel creates the model for the configured provider.
func NewModel(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (models.Model, error) {
	provider := strings.ToLower(cfg.LLM.Provider)

	var (
		model models.Model
		err   error
	)
	switch provider {
	case appconfig.ProviderAnthropic:
		log.Info("Initializing Claude model", logger.StringField("model", cfg.Anthropic.Model))
		var opts []anthropicoption.RequestOption
		if cfg.Anthropic.APIBaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(cfg.Anthropic.APIBaseURL))
		}
		model, err = anthropic.NewClaudeModel(cfg.Anthropic.APIKey, cfg.Anthropic.Model, log, opts...)

	case appconfig.ProviderOpenAI:
		log.Info("Initializing OpenAI model", logger.StringField("model", cfg.OpenAI.Model))
		var opts []openaioption.RequestOption
		if cfg.OpenAI.APIBaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(cfg.OpenAI.APIBaseURL))
		}
		model, err = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log, opts...)

	case appconfig.ProviderGemini:
		log.Info("Initializing Gemini model", logger.StringField("model", cfg.Gemini.Model))
		model, err = gemini.New(ctx, gemini.Config{
			APIKey:    cfg.Gemini.APIKey,
			ModelName: cfg.Gemini.Model,
			BaseURL:   cfg.Gemini.APIBaseURL,
		}, log)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}
	return withTimeout(model, cfg.LLM.Timeout), nil
}

// timeoutModel bounds every Complete call.
type timeoutModel struct {
	models.Model
	timeout time.Duration
}

func withTimeout(m models.Model, d time.Duration) models.Model {
	if d <= 0 {
		return m
	}
	return &timeoutModel{Model: m, timeout: d}
}

// Complete bounds the wrapped call by the configured timeout.
func (t *timeoutModel) Complete(ctx context.Context, req models.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Model.Complete(ctx, req)
}
