package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/metrics"
	"github.com/llmfuse/hybrid-gateway/internal/shared/models"
	"github.com/llmfuse/hybrid-gateway/internal/shared/store"
)

// Request context keys populated by the admission pipeline.
const (
	ctxKeyAPIKey    = "api_key"
	ctxKeyKeyConfig = "api_key_config"
	ctxKeyUsage     = "usage"
)

// Middleware is the three-stage admission pipeline: authenticate, rate
// limit, daily quota. Stages run strictly in that order and
// short-circuit on the first failure. Counter increments made by an
// earlier stage are not rolled back when a later stage rejects; that
// partial side effect is deliberate (see DESIGN.md).
type Middleware struct {
	store            store.Store
	defaultRateLimit int
	metrics          *metrics.Metrics
}

func NewMiddleware(s store.Store, defaultRateLimit int, m *metrics.Metrics) *Middleware {
	return &Middleware{
		store:            s,
		defaultRateLimit: defaultRateLimit,
		metrics:          m,
	}
}

// Auth requires a non-empty x-api-key header mapped to a KeyConfig in
// the shared store. The two failure modes are distinguishable by
// message but share the 401 status.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get("x-api-key"))
		if apiKey == "" {
			m.metrics.RecordRejection("auth")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Missing API key")
			return
		}

		raw, err := m.store.Get(r.Context(), store.APIKeyKey(apiKey))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				m.metrics.RecordRejection("auth")
				writeError(w, http.StatusUnauthorized, "Unauthorized", "API key configuration not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal error", "key lookup failed")
			return
		}

		var keyConfig models.KeyConfig
		if err := json.Unmarshal([]byte(raw), &keyConfig); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error", "invalid key configuration")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAPIKey, apiKey)
		ctx = context.WithValue(ctx, ctxKeyKeyConfig, &keyConfig)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit enforces the per-minute window. The increment counts
// against the window even when the request is rejected.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		apiKey, _ := ctx.Value(ctxKeyAPIKey).(string)
		keyConfig, _ := ctx.Value(ctxKeyKeyConfig).(*models.KeyConfig)

		limit := m.defaultRateLimit
		if keyConfig != nil && keyConfig.RateLimitPerMinute > 0 {
			limit = keyConfig.RateLimitPerMinute
		}

		key := store.RateLimitKey(apiKey)
		count, err := m.store.IncrBy(ctx, key, 1)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error", "rate limit check failed")
			return
		}

		// First request in this window arms the expiry. A concurrent
		// re-arm is harmless; a window that never expires is not.
		if count == 1 {
			m.store.Expire(ctx, key, time.Minute)
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(limit) {
			m.metrics.RecordRejection("rate_limit")
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded",
				fmt.Sprintf("Max %d requests per minute exceeded", limit))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UsageTracker enforces the daily request quota, scoped to the UTC
// calendar day. On success the {used, limit} snapshot is attached to
// the request context for downstream observability.
func (m *Middleware) UsageTracker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		apiKey, _ := ctx.Value(ctxKeyAPIKey).(string)
		keyConfig, _ := ctx.Value(ctxKeyKeyConfig).(*models.KeyConfig)

		dailyLimit := 500
		if keyConfig != nil && keyConfig.DailyLimit > 0 {
			dailyLimit = keyConfig.DailyLimit
		}

		key := store.UsageKey(apiKey, store.Today())
		count, err := m.store.IncrBy(ctx, key, 1)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error", "usage tracking failed")
			return
		}

		if count == 1 {
			m.store.Expire(ctx, key, 24*time.Hour)
		}

		if count > int64(dailyLimit) {
			m.metrics.RecordRejection("daily_quota")
			writeError(w, http.StatusTooManyRequests, "Daily limit exceeded",
				fmt.Sprintf("Daily request limit of %d exceeded", dailyLimit))
			return
		}

		ctx = context.WithValue(ctx, ctxKeyUsage, models.RequestUsage{Used: count, Limit: dailyLimit})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORS handles cross-origin requests from the chat UI.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
