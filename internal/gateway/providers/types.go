package providers

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// TokenUsage is the input/output/total token triple attached to every
// completion. Local completions estimate it; cloud completions report
// the upstream's own usage accounting.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// CompletionResult is the terminal value of a non-streaming completion.
// Both adapters return the same shape so the routing engine treats them
// polymorphically.
type CompletionResult struct {
	Content  string
	Provider string
	Tokens   TokenUsage
}

// TokenStream is a single-pass, non-restartable sequence of token
// fragments. Recv returns io.EOF after the final fragment.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Provider is the single "complete chat" capability both backends
// implement.
type Provider interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*CompletionResult, error)
	Name() string
}

// StreamingProvider is a Provider that can additionally stream token
// fragments as they are generated. Only the local backend streams.
type StreamingProvider interface {
	Provider
	Stream(ctx context.Context, messages []openai.ChatCompletionMessage) (TokenStream, error)
}

// ErrNotConfigured is returned when the cloud agent endpoint or access
// key is missing. This is a fatal configuration error, not a
// per-request recoverable one, and must not trigger local fallback.
var ErrNotConfigured = errors.New("cloud agent endpoint not configured")
