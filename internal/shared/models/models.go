package models

// KeyConfig is the per-key configuration read from the shared store on
// every request. Keys are created out-of-band (see cmd/seed-keys); the
// gateway treats the config as read-only and never generates keys.
type KeyConfig struct {
	Name               string `json:"name"`
	DailyLimit         int    `json:"dailyLimit"`
	RateLimitPerMinute int    `json:"rateLimitPerMinute"`
}

// RequestUsage is the daily request counter snapshot attached to the
// request context by the admission pipeline.
type RequestUsage struct {
	Used  int64 `json:"used"`
	Limit int   `json:"limit"`
}

// RequestLog is one audit row for a completed gateway request,
// persisted when the optional Postgres sink is configured.
type RequestLog struct {
	APIKeyName       string
	Endpoint         string
	Provider         string
	RoutingReason    string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMs        int
	FallbackUsed     bool
	StatusCode       int
	ErrorMessage     *string
}
