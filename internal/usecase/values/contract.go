package values

import (
	"context"

	"github.com/google/uuid"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// Embedder vectorizes a batch of terms in one provider call, order-aligned.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index searches the stored-value vector index of a data source.
type Index interface {
	Search(ctx context.Context, dataSourceID uuid.UUID, vector []float32, topK int) ([]domain.FoundValue, error)
}
