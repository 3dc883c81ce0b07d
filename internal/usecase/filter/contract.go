package filter

import "context"

// Completer requests a deterministic JSON-mode completion from the LLM
// provider. maxTokens bounds the response size.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
