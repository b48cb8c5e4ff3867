// Package anthropic invokes Claude models through the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// ClaudeModel implements models.Model for Anthropic Claude models.
type ClaudeModel struct {
	client    anthropic.Client
	modelName string
	log       logger.Logger
}

// NewClaudeModel creates a Claude model. The SDK's own retries are disabled.
func NewClaudeModel(apiKey, modelName string, log logger.Logger, opts ...option.RequestOption) (*ClaudeModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	client := anthropic.NewClient(append(base, opts...)...)

	return &ClaudeModel{
		client:    client,
		modelName: modelName,
		log:       log.WithFields(logger.StringField("component", "claude_model"), logger.StringField("model", modelName)),
	}, nil
}

// Name returns the configured model name.
func (c *ClaudeModel) Name() string {
	return c.modelName
}

// Provider returns "anthropic".
func (c *ClaudeModel) Provider() string {
	return "anthropic"
}

// Complete sends req to the Messages API and returns the concatenated text blocks.
func (c *ClaudeModel) Complete(ctx context.Context, req models.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: req.TokenLimit(),
		Messages:  toMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	c.log.Debug("sending request to anthropic", logger.IntField("messages_count", len(params.Messages)))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: claude api error: %w", models.ErrExtractionFailed, err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := models.JoinText(parts)
	if text == "" {
		return "", fmt.Errorf("%w: claude returned no text (stop reason %q)", models.ErrExtractionFailed, resp.StopReason)
	}

	c.log.Debug("received response from anthropic",
		logger.IntField("content_blocks", len(resp.Content)),
		logger.Int64Field("output_tokens", resp.Usage.OutputTokens))
	return text, nil
}

func toMessageParams(messages []models.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return params
}
