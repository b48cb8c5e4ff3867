// Package openai invokes GPT models through the Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/pkg/logger"
)

// Model implements models.Model for OpenAI chat models.
type Model struct {
	client    *openai.Client
	modelName string
	log       logger.Logger
}

// New creates an OpenAI model. The SDK's own retries are disabled.
func New(apiKey, modelName string, log logger.Logger, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	client := openai.NewClient(append(base, opts...)...)

	return &Model{
		client:    &client,
		modelName: modelName,
		log:       log.WithFields(logger.StringField("component", "openai_model"), logger.StringField("model", modelName)),
	}, nil
}

// Name returns the configured model name.
func (o *Model) Name() string {
	return o.modelName
}

// Provider returns "openai".
func (o *Model) Provider() string {
	return "openai"
}

// Complete sends req as a chat completion and returns the first choice's content.
func (o *Model) Complete(ctx context.Context, req models.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == models.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     o.modelName,
		MaxTokens: openai.Int(req.TokenLimit()),
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai API error: %w", models.ErrExtractionFailed, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", models.ErrExtractionFailed)
	}

	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: openai refused: %s", models.ErrExtractionFailed, choice.Message.Refusal)
	}
	text := models.JoinText([]string{choice.Message.Content})
	if text == "" {
		return "", fmt.Errorf("%w: openai returned empty content (finish reason %q)", models.ErrExtractionFailed, choice.FinishReason)
	}

	o.log.Debug("received response from openai", logger.Int64Field("completion_tokens", completion.Usage.CompletionTokens))
	return text, nil
}
