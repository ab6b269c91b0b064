// Package tokenizer approximates token counts for routing decisions.
// It is intentionally not a real tokenizer: the 4-characters-per-token
// heuristic is cheap, deterministic, and close enough to pick a backend.
package tokenizer

import "github.com/sashabaranov/go-openai"

// Estimate returns ceil(len(text)/4). Empty input yields 0.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateMessages sums the per-message estimates over message content.
// Missing content counts as empty.
func EstimateMessages(messages []openai.ChatCompletionMessage) int {
	total := 0
	for _, m := range messages {
		total += Estimate(m.Content)
	}
	return total
}
