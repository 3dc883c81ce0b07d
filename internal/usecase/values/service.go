// Package values turns free-text search terms into concrete stored values:
// sanitize, embed as one batch, then search the value index per term.
package values

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// valuesPerTerm caps how many nearest stored values each term pulls back.
const valuesPerTerm = 20

// Service finds stored values matching search terms. Every failure inside
// this stage degrades to an empty result; it never fails the pipeline.
type Service struct {
	embed  Embedder
	index  Index
	logger *zap.Logger
}

// New creates a value search service.
func New(embed Embedder, index Index, logger *zap.Logger) *Service {
	return &Service{embed: embed, index: index, logger: logger}
}

// FindValues sanitizes terms, embeds the survivors in a single batch, and
// searches the value index per term concurrently. It returns the per-term
// mapping and the flattened, duplicate-tolerant list of all found values.
func (s *Service) FindValues(
	ctx context.Context, dataSourceID uuid.UUID, terms []string,
) (map[string][]domain.FoundValue, []domain.FoundValue) {
	valid := SanitizeTerms(terms)
	if len(valid) == 0 {
		return map[string][]domain.FoundValue{}, nil
	}

	vectors, err := s.embed.EmbedBatch(ctx, valid)
	if err != nil {
		s.logger.Error("Batch embedding generation failed", zap.Error(err))
		return map[string][]domain.FoundValue{}, nil
	}
	if len(vectors) != len(valid) {
		s.logger.Warn("Embedding count mismatch, unmatched terms dropped",
			zap.Int("terms", len(valid)),
			zap.Int("embeddings", len(vectors)),
		)
	}

	type termResult struct {
		term   string
		values []domain.FoundValue
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []termResult
	)

	// Term counts are small (tens, not thousands), so the fan-out across
	// terms is unbounded. Each search fails independently.
	for i, term := range valid {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(term string, vector []float32) {
			defer wg.Done()

			found, err := s.index.Search(ctx, dataSourceID, vector, valuesPerTerm)
			if err != nil {
				s.logger.Error("Stored value search failed",
					zap.String("term", term),
					zap.String("data_source_id", dataSourceID.String()),
					zap.Error(err),
				)
				found = nil
			}

			mu.Lock()
			results = append(results, termResult{term: term, values: found})
			mu.Unlock()
		}(term, vectors[i])
	}
	wg.Wait()

	byTerm := make(map[string][]domain.FoundValue, len(results))
	var all []domain.FoundValue
	for _, r := range results {
		byTerm[r.term] = r.values
		all = append(all, r.values...)
		s.logger.Debug("Found values for search term",
			zap.String("term", r.term),
			zap.Int("count", len(r.values)),
		)
	}
	return byTerm, all
}
