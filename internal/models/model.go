// Package models defines the provider-neutral interface used to invoke a
// language model, plus the error every provider failure is reported as.
package models

import (
	"context"
	"errors"
	"strings"
)

// ErrExtractionFailed wraps every transport error, non-success status or
// provider error payload returned while invoking a model.
var ErrExtractionFailed = errors.New("model invocation failed")

// DefaultMaxTokens bounds a response when the request leaves MaxTokens unset.
const DefaultMaxTokens int64 = 2048

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request is a single non-streaming completion request.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int64
}

// TokenLimit returns MaxTokens or DefaultMaxTokens when unset.
func (r Request) TokenLimit() int64 {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// Model completes a request and returns the raw text of the reply.
// Implementations do not retry.
//
//go:generate mockery --name Model --output ./mocks --with-expecter
type Model interface {
	// Provider is a short label such as "anthropic", used in metrics.
	Provider() string
	Complete(ctx context.Context, req Request) (string, error)
}

// JoinText concatenates non-empty text fragments of a multi-part reply.
func JoinText(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	return strings.TrimSpace(b.String())
}
