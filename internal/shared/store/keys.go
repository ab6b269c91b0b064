package store

import (
	"fmt"
	"time"
)

// Key layout in the shared store:
//
//	api_key:<id>           JSON KeyConfig, no TTL
//	rate_limit:<id>        request counter, 60s TTL
//	usage:<id>:<date>      daily request counter, 24h TTL
//	tokens:<id>:<date>     daily token ledger, 24h TTL

func APIKeyKey(id string) string {
	return "api_key:" + id
}

func RateLimitKey(id string) string {
	return "rate_limit:" + id
}

func UsageKey(id, date string) string {
	return fmt.Sprintf("usage:%s:%s", id, date)
}

func TokensKey(id, date string) string {
	return fmt.Sprintf("tokens:%s:%s", id, date)
}

// Today returns the current UTC calendar date. Daily counters are scoped
// to the UTC date string, not a rolling 24h window.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
