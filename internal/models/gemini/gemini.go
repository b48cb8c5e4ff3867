// Package gemini invokes Google Gemini models through the genai SDK.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Config configures the Gemini client.
type Config struct {
	APIKey    string
	ModelName string
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string
}

// Model implements models.Model for Gemini.
type Model struct {
	client    *genai.Client
	modelName string
	log       logger.Logger
}

// New creates a Gemini model on the Gemini API backend.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Model{
		client:    client,
		modelName: cfg.ModelName,
		log:       log.WithFields(logger.StringField("component", "gemini_model"), logger.StringField("model", cfg.ModelName)),
	}, nil
}

// Name returns the configured model name.
func (g *Model) Name() string {
	return g.modelName
}

// Provider returns "gemini".
func (g *Model) Provider() string {
	return "gemini"
}

// Complete asks for a JSON response and returns the text of the first candidate.
func (g *Model) Complete(ctx context.Context, req models.Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(req.TokenLimit()),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini api error: %w", models.ErrExtractionFailed, err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: gemini blocked the prompt: %s", models.ErrExtractionFailed, resp.PromptFeedback.BlockReason)
	}

	text := models.JoinText([]string{resp.Text()})
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text", models.ErrExtractionFailed)
	}
	return text, nil
}
