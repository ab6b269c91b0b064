package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/tokenizer"
)

func TestOllamaComplete(t *testing.T) {
	var gotReq ollamaGenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: "<think>pondering</think> hello",
			Done:     true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	result, err := p.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: "user", Content: "Hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, "USER: Hi\nASSISTANT:", gotReq.Prompt)

	assert.Equal(t, "hello", result.Content)
	assert.Equal(t, "ollama", result.Provider)
	assert.Equal(t, tokenizer.Estimate("USER: Hi\nASSISTANT:"), result.Tokens.Input)
	assert.Equal(t, tokenizer.Estimate("hello"), result.Tokens.Output)
	assert.Equal(t, result.Tokens.Input+result.Tokens.Output, result.Tokens.Total)
}

func TestOllamaCompletePromptFormat(t *testing.T) {
	var gotReq ollamaGenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "ok", Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	_, err := p.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello"},
		{Role: "user", Content: "Bye"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SYSTEM: be brief\nUSER: Hi\nASSISTANT: Hello\nUSER: Bye\nASSISTANT:", gotReq.Prompt)
}

func TestOllamaCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	_, err := p.Complete(context.Background(), []openai.ChatCompletionMessage{{Role: "user", Content: "Hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaGenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		require.True(t, req.Stream)

		fmt.Fprintln(w, `{"response":"Hel"}`)
		fmt.Fprintln(w, `{"response":"lo"}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	stream, err := p.Stream(context.Background(), []openai.ChatCompletionMessage{{Role: "user", Content: "Hi"}})
	require.NoError(t, err)
	defer stream.Close()

	var fragments []string
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		fragments = append(fragments, frag)
	}

	assert.Equal(t, []string{"Hel", "lo"}, fragments)
}

func TestOllamaStreamEOFWithoutDone(t *testing.T) {
	// An upstream that closes without a done chunk still terminates.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial"}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	stream, err := p.Stream(context.Background(), []openai.ChatCompletionMessage{{Role: "user", Content: "Hi"}})
	require.NoError(t, err)
	defer stream.Close()

	frag, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", frag)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}
