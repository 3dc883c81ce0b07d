// Package rank selects a relevance shortlist of candidate datasets for a
// single query or topic via cross-encoder reranking.
package rank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// topN is the fixed shortlist size requested from the reranking provider.
const topN = 35

// Service ranks candidate datasets for one query/topic at a time.
type Service struct {
	reranker Reranker
	logger   *zap.Logger
}

// New creates a ranking service.
func New(reranker Reranker, logger *zap.Logger) *Service {
	return &Service{reranker: reranker, logger: logger}
}

// Rank returns the subset of datasets the reranker shortlists for the query.
// datasets and documents are positionally aligned. A provider failure is
// returned to the caller, which records it as a per-query warning and treats
// the query as having no ranked candidates.
func (s *Service) Rank(
	ctx context.Context, query string, datasets []domain.Dataset, documents []string,
) ([]domain.Dataset, error) {
	if len(datasets) == 0 || len(documents) == 0 {
		return nil, nil
	}

	indices, err := s.reranker.Rerank(ctx, query, documents, topN)
	if err != nil {
		return nil, fmt.Errorf("rerank %q: %w", query, err)
	}

	ranked := make([]domain.Dataset, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(datasets) {
			s.logger.Error("Reranker returned index outside candidate range",
				zap.Int("index", idx),
				zap.Int("max_index", len(datasets)-1),
				zap.String("query", query),
			)
			continue
		}
		ranked = append(ranked, datasets[idx])
	}
	return ranked, nil
}
