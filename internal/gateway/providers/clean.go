package providers

import "strings"

const (
	thinkStart = "<think>"
	thinkEnd   = "</think>"
)

// StripThinking removes <think>...</think> blocks from raw model
// output. Removal only happens when both markers are present; a
// malformed block passes through unmodified apart from trimming.
func StripThinking(text string) string {
	if strings.Contains(text, thinkStart) && strings.Contains(text, thinkEnd) {
		for {
			start := strings.Index(text, thinkStart)
			if start < 0 {
				break
			}
			end := strings.Index(text[start:], thinkEnd)
			if end < 0 {
				break
			}
			text = text[:start] + text[start+end+len(thinkEnd):]
		}
	}
	return strings.TrimSpace(text)
}
