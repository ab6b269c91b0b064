package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudAgentProviderRequiresConfig(t *testing.T) {
	_, err := NewCloudAgentProvider("", "key")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewCloudAgentProvider("https://agent.example.com", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewCloudAgentProvider("", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCloudAgentComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "upstream-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]string{
						"role":    "assistant",
						"content": "cloud says hi",
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens":     10,
				"completion_tokens": 20,
				"total_tokens":      30,
			},
		})
	}))
	defer srv.Close()

	p, err := NewCloudAgentProvider(srv.URL, "secret-key")
	require.NoError(t, err)

	result, err := p.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: "user", Content: "Hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cloud says hi", result.Content)
	assert.Equal(t, "cloud-agent", result.Provider)

	// Usage is trusted from upstream, not re-estimated.
	assert.Equal(t, 10, result.Tokens.Input)
	assert.Equal(t, 20, result.Tokens.Output)
	assert.Equal(t, 30, result.Tokens.Total)
}

func TestCloudAgentCompleteUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewCloudAgentProvider(srv.URL, "secret-key")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []openai.ChatCompletionMessage{{Role: "user", Content: "Hi"}})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}
