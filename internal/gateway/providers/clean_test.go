package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripThinkingRemovesBlock(t *testing.T) {
	assert.Equal(t, "answer", StripThinking("<think>x</think>answer"))
}

func TestStripThinkingUnterminatedPassesThrough(t *testing.T) {
	assert.Equal(t, "<think>x", StripThinking("<think>x"))
}

func TestStripThinkingNoMarkers(t *testing.T) {
	assert.Equal(t, "plain text", StripThinking("  plain text\n"))
}

func TestStripThinkingMultipleBlocks(t *testing.T) {
	assert.Equal(t, "a b", StripThinking("<think>1</think>a <think>2</think>b"))
}

func TestStripThinkingOnlyEndMarker(t *testing.T) {
	assert.Equal(t, "x</think>y", StripThinking("x</think>y"))
}

func TestStripThinkingEmpty(t *testing.T) {
	assert.Equal(t, "", StripThinking(""))
	assert.Equal(t, "", StripThinking("<think>only thoughts</think>"))
}
