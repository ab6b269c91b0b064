package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// cloudRequestTimeout bounds every cloud call. The local adapter has
// no timeout; the cloud one always does.
const cloudRequestTimeout = 30 * time.Second

// CloudAgentProvider is the remote backend: an OpenAI-compatible chat
// completion endpoint reached with a bearer credential. Token usage is
// taken from the upstream response, not re-estimated.
type CloudAgentProvider struct {
	client *openai.Client
}

// NewCloudAgentProvider builds the remote provider. Both the endpoint
// and the access key are required; a missing value is ErrNotConfigured.
func NewCloudAgentProvider(endpoint, accessKey string) (*CloudAgentProvider, error) {
	if endpoint == "" || accessKey == "" {
		return nil, ErrNotConfigured
	}

	cfg := openai.DefaultConfig(accessKey)
	cfg.BaseURL = strings.TrimRight(endpoint, "/") + "/api/v1"
	cfg.HTTPClient = &http.Client{Timeout: cloudRequestTimeout}

	return &CloudAgentProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Complete forwards the raw conversation to the remote endpoint as a
// blocking call.
func (p *CloudAgentProvider) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*CompletionResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("cloud agent error: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &CompletionResult{
		Content:  content,
		Provider: p.Name(),
		Tokens: TokenUsage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
			Total:  resp.Usage.TotalTokens,
		},
	}, nil
}

// Name returns the provider name.
func (p *CloudAgentProvider) Name() string {
	return "cloud-agent"
}
