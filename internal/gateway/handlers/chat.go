package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/metrics"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/providers"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/relay"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/routing"
	"github.com/llmfuse/hybrid-gateway/internal/shared/database"
	"github.com/llmfuse/hybrid-gateway/internal/shared/models"
	"github.com/llmfuse/hybrid-gateway/internal/shared/store"
)

type ChatHandler struct {
	engine  *routing.Engine
	store   store.Store
	db      *database.DB // optional audit sink, may be nil
	metrics *metrics.Metrics
}

func NewChatHandler(engine *routing.Engine, s store.Store, db *database.DB, m *metrics.Metrics) *ChatHandler {
	return &ChatHandler{
		engine:  engine,
		store:   s,
		db:      db,
		metrics: m,
	}
}

type chatRequest struct {
	Messages []openai.ChatCompletionMessage `json:"messages"`
	Model    string                         `json:"model,omitempty"`
}

type chatResponse struct {
	ID       string          `json:"id"`
	Object   string          `json:"object"`
	Provider string          `json:"provider"`
	Usage    usagePayload    `json:"usage"`
	Choices  []choicePayload `json:"choices"`
}

type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type choicePayload struct {
	Index        int            `json:"index"`
	Message      messagePayload `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HandleChatCompletion handles POST /v1/chat/completions
func (h *ChatHandler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	apiKey, _ := ctx.Value(ctxKeyAPIKey).(string)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if req.Messages == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "messages must be an array")
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, req)
		return
	}

	pref := routing.PreferenceFromModel(req.Model)
	result, decision, err := h.engine.Complete(ctx, req.Messages, pref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Provider error", err.Error())
		h.logRequest(apiKey, decision, nil, time.Since(startTime), http.StatusInternalServerError, err)
		return
	}

	// Accumulate the daily token ledger before replying so /v1/usage
	// reflects this request immediately.
	h.trackTokens(ctx, apiKey, result.Tokens.Total)

	h.metrics.RecordRequest(result.Provider, string(decision.Reason))
	h.metrics.RecordTokens(result.Provider, result.Tokens.Input, result.Tokens.Output)
	if decision.Fallback {
		h.metrics.RecordFallback()
	}

	w.Header().Set("X-Provider", result.Provider)
	w.Header().Set("X-Routing-Reason", string(decision.Reason))
	if decision.Fallback {
		w.Header().Set("X-Fallback", "true")
	}

	resp := chatResponse{
		ID:       "chatcmpl-" + uuid.NewString(),
		Object:   "chat.completion",
		Provider: result.Provider,
		Usage: usagePayload{
			PromptTokens:     result.Tokens.Input,
			CompletionTokens: result.Tokens.Output,
			TotalTokens:      result.Tokens.Total,
		},
		Choices: []choicePayload{
			{
				Index: 0,
				Message: messagePayload{
					Role:    "assistant",
					Content: result.Content,
				},
				FinishReason: "stop",
			},
		},
	}
	writeJSON(w, http.StatusOK, resp)

	h.logRequest(apiKey, decision, result, time.Since(startTime), http.StatusOK, nil)
}

// handleStreamingChat relays a live local token stream to the client.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, req chatRequest) {
	ctx := r.Context()
	startTime := time.Now()
	apiKey, _ := ctx.Value(ctxKeyAPIKey).(string)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Provider error", "streaming not supported")
		return
	}

	stream, decision, err := h.engine.Stream(ctx, req.Messages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Provider error", err.Error())
		h.logRequest(apiKey, decision, nil, time.Since(startTime), http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	h.metrics.RecordRequest(decision.Provider, string(decision.Reason))

	// A mid-flight error simply terminates the connection: partial
	// output already sent cannot be retracted, so no sentinel, no
	// retry, no cloud fallback.
	if err := relay.Pipe(w, flusher, stream); err != nil {
		log.Printf("stream relay terminated: %v", err)
		h.logRequest(apiKey, decision, nil, time.Since(startTime), http.StatusOK, err)
		return
	}

	h.logRequest(apiKey, decision, nil, time.Since(startTime), http.StatusOK, nil)
}

// trackTokens accumulates the per-day token ledger, independent of the
// request counter.
func (h *ChatHandler) trackTokens(ctx context.Context, apiKey string, total int) {
	key := store.TokensKey(apiKey, store.Today())

	if _, err := h.store.IncrBy(ctx, key, int64(total)); err != nil {
		log.Printf("token ledger update failed: %v", err)
		return
	}
	if err := h.store.Expire(ctx, key, 24*time.Hour); err != nil {
		log.Printf("token ledger expiry failed: %v", err)
	}
}

// logRequest writes an audit row when the Postgres sink is configured.
func (h *ChatHandler) logRequest(apiKey string, decision routing.Decision, result *providers.CompletionResult, duration time.Duration, statusCode int, err error) {
	if h.db == nil {
		return
	}

	entry := &models.RequestLog{
		APIKeyName:    apiKey,
		Endpoint:      "/v1/chat/completions",
		Provider:      decision.Provider,
		RoutingReason: string(decision.Reason),
		LatencyMs:     int(duration.Milliseconds()),
		FallbackUsed:  decision.Fallback,
		StatusCode:    statusCode,
	}

	if result != nil {
		entry.Provider = result.Provider
		entry.PromptTokens = result.Tokens.Input
		entry.CompletionTokens = result.Tokens.Output
		entry.TotalTokens = result.Tokens.Total
	}

	if err != nil {
		errMsg := err.Error()
		entry.ErrorMessage = &errMsg
	}

	// Log asynchronously to avoid blocking the response path.
	go h.db.LogRequest(context.Background(), entry)
}
