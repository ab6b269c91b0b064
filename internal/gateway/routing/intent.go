package routing

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// heavyKeywords flag requests that likely benefit from the more
// capable cloud backend. Matching is exact substring containment over
// the case-folded conversation, no fuzzy or partial matching.
var heavyKeywords = []string{
	"explain",
	"explanation",
	"architecture",
	"design",
	"compare",
	"pros and cons",
	"why",
	"how does",
	"in detail",
	"deep",
	"production",
	"scaling",
}

// IsHeavyIntent reports whether any heavy keyword appears anywhere in
// the conversation. An empty conversation is not heavy.
func IsHeavyIntent(messages []openai.ChatCompletionMessage) bool {
	if len(messages) == 0 {
		return false
	}

	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.Content)
	}
	text := strings.ToLower(b.String())

	for _, keyword := range heavyKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
