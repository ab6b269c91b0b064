package routing

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func userMessage(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: "user", Content: content}
}

func TestIsHeavyIntentKeyword(t *testing.T) {
	assert.True(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("please explain recursion"),
	}))
}

func TestIsHeavyIntentCaseFolded(t *testing.T) {
	assert.True(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("EXPLAIN this to me"),
	}))
	assert.True(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("Pros And Cons of monoliths"),
	}))
}

func TestIsHeavyIntentNotHeavy(t *testing.T) {
	assert.False(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("Hello!"),
	}))
}

func TestIsHeavyIntentEmptyConversation(t *testing.T) {
	assert.False(t, IsHeavyIntent(nil))
	assert.False(t, IsHeavyIntent([]openai.ChatCompletionMessage{}))
}

func TestIsHeavyIntentAnyMessage(t *testing.T) {
	// The keyword can appear in any message, not just the last one.
	assert.True(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("how does TCP work"),
		{Role: "assistant", Content: "It moves bytes."},
		userMessage("ok thanks"),
	}))
}

func TestIsHeavyIntentSubstringOnly(t *testing.T) {
	// Exact substring containment, no fuzzy matching: "explanation"
	// contains "explain" so it matches, but unrelated words do not.
	assert.True(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("I need an explanation"),
	}))
	assert.False(t, IsHeavyIntent([]openai.ChatCompletionMessage{
		userMessage("what time is it"),
	}))
}
