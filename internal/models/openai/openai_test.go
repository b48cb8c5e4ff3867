package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/pkg/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		modelName string
		wantErr   bool
	}{
		{name: "valid", apiKey: "k", modelName: "gpt-4o-mini"},
		{name: "missing key", modelName: "gpt-4o-mini", wantErr: true},
		{name: "missing model", apiKey: "k", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.apiKey, tt.modelName, logger.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.modelName, m.Name())
		})
	}
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := New("test-key", "gpt-test", logger.NewNop(), option.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return m
}

func TestModel_Complete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": " {\"feeling\":\"hurt\"} ", "refusal": null}}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7}
		}`))
	})

	text, err := m.Complete(context.Background(), models.Request{
		System:   "system",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"feeling":"hurt"}`, text)

	assert.Equal(t, "gpt-test", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "user", body.Messages[1].Role)
}

func TestModel_Complete_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"id":"x","object":"chat.completion","created":1,"model":"gpt-test","choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"id":"x","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"length","message":{"role":"assistant","content":""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := m.Complete(context.Background(), models.Request{
				Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
			})
			assert.True(t, errors.Is(err, models.ErrExtractionFailed), "got %v", err)
		})
	}
}
