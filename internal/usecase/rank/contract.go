package rank

import "context"

// Reranker cross-encodes a query against candidate documents and returns the
// indices of the topN most relevant documents, referencing the input slice.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error)
}
