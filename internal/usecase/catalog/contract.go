package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// Store reads permissioned datasets and data-source metadata.
type Store interface {
	ListPermissioned(ctx context.Context, userID uuid.UUID) ([]domain.Dataset, error)
	LookupSourceDialect(ctx context.Context, dataSourceID uuid.UUID) (string, error)
}

// SessionContext publishes pipeline side effects into shared agent session
// state. All writes are best-effort; failures are logged, never propagated.
type SessionContext interface {
	UserPrompt(ctx context.Context, sessionID uuid.UUID) (string, bool, error)
	PublishDataSourceID(ctx context.Context, sessionID uuid.UUID, id *uuid.UUID) error
	PublishDataSourceSyntax(ctx context.Context, sessionID uuid.UUID, dialect string) error
	PublishSearchFlags(ctx context.Context, sessionID uuid.UUID, dataContextFound bool) error
}

// ValueFinder resolves search terms to concrete stored values. It degrades
// internally and never fails.
type ValueFinder interface {
	FindValues(ctx context.Context, dataSourceID uuid.UUID, terms []string) (map[string][]domain.FoundValue, []domain.FoundValue)
}

// Ranker shortlists candidates for one query or topic.
type Ranker interface {
	Rank(ctx context.Context, query string, datasets []domain.Dataset, documents []string) ([]domain.Dataset, error)
}

// Filterer adjudicates ranked candidates with an LLM, in a strict variant for
// specific queries and a broad variant for exploratory topics.
type Filterer interface {
	FilterSpecific(ctx context.Context, query, userRequest string, ranked []domain.Dataset, found []domain.FoundValue) ([]domain.FilteredDataset, error)
	FilterExploratory(ctx context.Context, topic, userRequest string, ranked []domain.Dataset, found []domain.FoundValue) ([]domain.FilteredDataset, error)
}

// Enricher injects found values into a winning dataset's document.
type Enricher interface {
	Enrich(document string, found []domain.FoundValue) string
}
