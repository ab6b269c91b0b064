package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/tokenizer"
)

// OllamaProvider is the local backend. It flattens the conversation
// into a single role-prefixed prompt and calls the Ollama generate
// endpoint. No client timeout: local generation may legitimately take
// longer than any fixed budget, and a dropped client unwinds the task
// on its own.
type OllamaProvider struct {
	host       string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates a local provider for the given Ollama host
// and model identifier.
func NewOllamaProvider(host, model string) *OllamaProvider {
	return &OllamaProvider{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// buildPrompt flattens the conversation into "ROLE: content" lines
// terminated by an ASSISTANT: cue for the model to continue.
func buildPrompt(messages []openai.ChatCompletionMessage) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("ASSISTANT:")
	return b.String()
}

// Complete makes a blocking generate call. Input tokens are estimated
// on the full prompt, output tokens on the cleaned (thinking-stripped)
// response.
func (p *OllamaProvider) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*CompletionResult, error) {
	prompt := buildPrompt(messages)
	inputTokens := tokenizer.Estimate(prompt)

	body, err := p.generate(ctx, prompt, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to parse ollama response: %w", err)
	}

	content := StripThinking(genResp.Response)
	outputTokens := tokenizer.Estimate(content)

	return &CompletionResult{
		Content:  content,
		Provider: p.Name(),
		Tokens: TokenUsage{
			Input:  inputTokens,
			Output: outputTokens,
			Total:  inputTokens + outputTokens,
		},
	}, nil
}

// Stream opens a streaming generate call and returns the fragment
// sequence. Fragments are forwarded raw; thinking blocks are not
// stripped mid-stream because the paired markers may straddle chunks.
func (p *OllamaProvider) Stream(ctx context.Context, messages []openai.ChatCompletionMessage) (TokenStream, error) {
	body, err := p.generate(ctx, buildPrompt(messages), true)
	if err != nil {
		return nil, err
	}

	return &ollamaStream{
		reader: bufio.NewReader(body),
		body:   body,
	}, nil
}

// generate posts to /api/generate and returns the response body after
// checking the status. The caller owns the body.
func (p *OllamaProvider) generate(ctx context.Context, prompt string, stream bool) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: stream,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.host+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama error: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errText, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(errText))
	}

	return resp.Body, nil
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// ollamaStream decodes the newline-delimited JSON chunks of a
// streaming generate call, one fragment per Recv.
type ollamaStream struct {
	reader *bufio.Reader
	body   io.ReadCloser
}

func (s *ollamaStream) Recv() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var chunk ollamaGenerateResponse
			if jsonErr := json.Unmarshal([]byte(trimmed), &chunk); jsonErr == nil {
				if chunk.Done {
					return "", io.EOF
				}
				if chunk.Response != "" {
					return chunk.Response, nil
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
	}
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}
