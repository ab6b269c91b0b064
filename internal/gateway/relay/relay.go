// Package relay pipes a live upstream token stream to the client as
// server-sent events, one fragment at a time, without buffering the
// response.
package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/providers"
)

type chunkDelta struct {
	Content string `json:"content"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

type chunkFrame struct {
	Choices []chunkChoice `json:"choices"`
}

// Pipe forwards every fragment from stream to w as a `data:` frame,
// flushing after each write and preserving arrival order. On clean
// upstream completion it emits the `data: [DONE]` sentinel. A
// mid-flight upstream or write error terminates the relay without the
// sentinel; partial output already sent cannot be retracted, so there
// is no retry and no fallback.
func Pipe(w io.Writer, flusher http.Flusher, stream providers.TokenStream) error {
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("upstream stream error: %w", err)
		}

		frame := chunkFrame{Choices: []chunkChoice{{Delta: chunkDelta{Content: fragment}}}}
		data, err := json.Marshal(frame)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
	}

	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
