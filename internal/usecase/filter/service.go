// Package filter asks an LLM to adjudicate which ranked candidates are truly
// relevant for a query or topic, using found values as supporting evidence.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// maxCompletionTokens is generous for a UUID list but bounds runaway output.
const maxCompletionTokens = 8096

// Service filters ranked candidates through LLM relevance adjudication.
type Service struct {
	llm    Completer
	logger *zap.Logger
}

// New creates a filter service.
func New(llm Completer, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// filterResponse is the only shape the completion may take.
type filterResponse struct {
	Results []string `json:"results"`
}

// candidateDoc is the per-dataset JSON block embedded in the prompt.
type candidateDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
}

// FilterSpecific selects the subset of ranked datasets relevant to a focused
// query, matching strictly against explicit and anticipated attributes.
func (s *Service) FilterSpecific(
	ctx context.Context, query, userRequest string,
	ranked []domain.Dataset, found []domain.FoundValue,
) ([]domain.FilteredDataset, error) {
	return s.filter(ctx, specificPrompt, query, userRequest, ranked, found)
}

// FilterExploratory selects ranked datasets thematically related to a broad
// topic, leaning towards inclusion.
func (s *Service) FilterExploratory(
	ctx context.Context, topic, userRequest string,
	ranked []domain.Dataset, found []domain.FoundValue,
) ([]domain.FilteredDataset, error) {
	return s.filter(ctx, exploratoryPrompt, topic, userRequest, ranked, found)
}

func (s *Service) filter(
	ctx context.Context, template, queryOrTopic, userRequest string,
	ranked []domain.Dataset, found []domain.FoundValue,
) ([]domain.FilteredDataset, error) {
	if len(ranked) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(template, queryOrTopic, userRequest, ranked, found)
	if err != nil {
		return nil, err
	}

	content, err := s.llm.Complete(ctx, prompt, maxCompletionTokens)
	if err != nil {
		return nil, fmt.Errorf("llm filter %q: %w", queryOrTopic, err)
	}

	var parsed filterResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse llm filter response for %q: %w", queryOrTopic, err)
	}

	byID := make(map[uuid.UUID]domain.Dataset, len(ranked))
	for _, d := range ranked {
		byID[d.ID] = d
	}

	// Keep the LLM's order; drop anything unparseable or not in the ranked
	// set (guards against hallucinated identities).
	out := make([]domain.FilteredDataset, 0, len(parsed.Results))
	for _, idStr := range parsed.Results {
		id, err := uuid.Parse(idStr)
		if err != nil {
			s.logger.Error("LLM filter returned unparseable dataset id",
				zap.String("id", idStr),
				zap.String("query_or_topic", queryOrTopic),
				zap.Error(err),
			)
			continue
		}
		d, ok := byID[id]
		if !ok {
			s.logger.Warn("LLM filter returned id not in ranked set",
				zap.String("id", id.String()),
				zap.String("query_or_topic", queryOrTopic),
			)
			continue
		}
		out = append(out, domain.FilteredDataset{
			ID:       d.ID,
			Name:     d.Name,
			Document: d.Document,
		})
	}

	s.logger.Debug("LLM filtering complete",
		zap.String("query_or_topic", queryOrTopic),
		zap.Int("kept", len(out)),
		zap.Int("ranked", len(ranked)),
	)
	return out, nil
}

func buildPrompt(
	template, queryOrTopic, userRequest string,
	ranked []domain.Dataset, found []domain.FoundValue,
) (string, error) {
	docs := make([]candidateDoc, 0, len(ranked))
	for _, d := range ranked {
		docs = append(docs, candidateDoc{
			ID:       d.ID.String(),
			Name:     d.Name,
			Document: d.Document,
		})
	}
	docsJSON, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate documents: %w", err)
	}

	return strings.NewReplacer(
		"{user_request}", userRequest,
		"{query}", queryOrTopic,
		"{topic}", queryOrTopic,
		"{found_values}", formatEvidence(found),
		"{datasets_json}", string(docsJSON),
	).Replace(template), nil
}

// formatEvidence renders the found values as a human-readable block listing
// each value with its originating column coordinate.
func formatEvidence(found []domain.FoundValue) string {
	if len(found) == 0 {
		return noValuesFound
	}
	lines := make([]string, 0, len(found))
	for _, v := range found {
		lines = append(lines, fmt.Sprintf("- '%s' (found in %s)", v.Value, v.Coordinate()))
	}
	return strings.Join(lines, "\n")
}
