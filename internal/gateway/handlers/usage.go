package handlers

import (
	"net/http"
	"strconv"

	"github.com/llmfuse/hybrid-gateway/internal/shared/models"
	"github.com/llmfuse/hybrid-gateway/internal/shared/store"
)

type UsageHandler struct {
	store store.Store
}

func NewUsageHandler(s store.Store) *UsageHandler {
	return &UsageHandler{store: s}
}

type usageResponse struct {
	APIKey    string              `json:"apiKey"`
	Requests  models.RequestUsage `json:"requests"`
	Tokens    tokensPayload       `json:"tokens"`
	RateLimit rateLimitPayload    `json:"rateLimit"`
}

type tokensPayload struct {
	Used int64 `json:"used"`
}

type rateLimitPayload struct {
	PerMinute int `json:"perMinute"`
}

// HandleUsage handles GET /v1/usage. It runs behind the full admission
// chain, so the reported request count includes this read.
func (h *UsageHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey, _ := ctx.Value(ctxKeyAPIKey).(string)
	keyConfig, _ := ctx.Value(ctxKeyKeyConfig).(*models.KeyConfig)
	usage, _ := ctx.Value(ctxKeyUsage).(models.RequestUsage)

	var tokensUsed int64
	if raw, err := h.store.Get(ctx, store.TokensKey(apiKey, store.Today())); err == nil {
		if n, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			tokensUsed = n
		}
	}

	resp := usageResponse{
		APIKey:   apiKey,
		Requests: usage,
		Tokens:   tokensPayload{Used: tokensUsed},
	}
	if keyConfig != nil {
		resp.RateLimit = rateLimitPayload{PerMinute: keyConfig.RateLimitPerMinute}
	}

	writeJSON(w, http.StatusOK, resp)
}
