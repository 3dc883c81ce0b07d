// Package enrich rewrites winning datasets' semantic documents, injecting
// found values into dimensions marked searchable. Enrichment is best-effort:
// any parse failure returns the document unmodified.
package enrich

import (
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
	"github.com/quarrydata/catalogscout/internal/domain/semdoc"
)

// maxValuesPerDimension caps the injected value list per dimension.
const maxValuesPerDimension = 20

// Service injects found values into semantic documents.
type Service struct {
	logger *zap.Logger
}

// New creates an enrichment service.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Enrich returns a copy of the document with relevant_values written into
// every searchable dimension for which matching values exist. The original
// text is returned untouched when parsing fails, when no searchable
// dimensions exist, or when no values match.
func (s *Service) Enrich(document string, found []domain.FoundValue) string {
	doc, err := semdoc.Parse(document)
	if err != nil {
		s.logger.Warn("Failed to parse semantic document, skipping value injection", zap.Error(err))
		return document
	}

	injected := false
	for _, model := range doc.Models {
		for _, dim := range model.SearchableDimensions() {
			vals := matchingValues(model, dim, found)
			if len(vals) == 0 {
				continue
			}
			dim.SetRelevantValues(vals)
			injected = true
			s.logger.Debug("Injected relevant values into dimension",
				zap.String("model", model.Name),
				zap.String("dimension", dim.Name),
				zap.Int("count", len(vals)),
			)
		}
	}
	if !injected {
		return document
	}

	out, err := doc.Marshal()
	if err != nil {
		s.logger.Warn("Failed to serialize enriched document, returning original", zap.Error(err))
		return document
	}
	return out
}

// matchingValues selects found values whose coordinate addresses the given
// dimension: same database, schema, and table (the model name), with the
// column matching the dimension's name or physical expression. Values are
// deduplicated by text and capped, preserving first-seen order.
func matchingValues(model *semdoc.Model, dim *semdoc.Dimension, found []domain.FoundValue) []string {
	seen := make(map[string]struct{})
	var vals []string
	for _, v := range found {
		if v.Database != model.Database || v.Schema != model.Schema || v.Table != model.Name {
			continue
		}
		if !dim.MatchesColumn(v.Column) {
			continue
		}
		if _, dup := seen[v.Value]; dup {
			continue
		}
		seen[v.Value] = struct{}{}
		vals = append(vals, v.Value)
		if len(vals) == maxValuesPerDimension {
			break
		}
	}
	return vals
}
