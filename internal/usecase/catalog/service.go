// Package catalog orchestrates the data catalog search pipeline: candidate
// collection, value search, per-query reranking and LLM filtering under
// bounded fan-out, deduplicating merge, and dimension enrichment.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// fanout caps concurrent rerank calls and, independently, concurrent filter
// calls within each of the specific and exploratory batches.
const fanout = 10

// fallbackUserPrompt stands in when no user request is available for context.
const fallbackUserPrompt = "User query context not available."

// Service runs the multi-stage catalog search pipeline. Collaborator failures
// degrade branch-locally; the response is always well-formed.
type Service struct {
	store   Store
	session SessionContext
	values  ValueFinder
	ranker  Ranker
	filter  Filterer
	enrich  Enricher
	logger  *zap.Logger
}

// New creates the pipeline service.
func New(
	store Store,
	session SessionContext,
	values ValueFinder,
	ranker Ranker,
	filter Filterer,
	enrich Enricher,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:   store,
		session: session,
		values:  values,
		ranker:  ranker,
		filter:  filter,
		enrich:  enrich,
		logger:  logger,
	}
}

// rankedBranch pairs a query/topic with its rerank shortlist.
type rankedBranch struct {
	query  string
	ranked []domain.Dataset
}

// Search executes the full pipeline for one tool invocation.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) domain.SearchOutput {
	start := time.Now()

	out := domain.SearchOutput{
		SpecificQueries:   req.SpecificQueries,
		ExploratoryTopics: req.ExploratoryTopics,
		Results:           []domain.DatasetResult{},
	}

	candidates, err := s.collectCandidates(ctx, req.UserID)
	if err != nil {
		s.logger.Error("Failed to fetch permissioned datasets",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
		out.Message = fmt.Sprintf("Error fetching datasets: %v", err)
		out.DurationMS = time.Since(start).Milliseconds()
		return out
	}

	if len(candidates) == 0 {
		s.logger.Info("No datasets found for user", zap.String("user_id", req.UserID.String()))
		s.publishDataSourceID(ctx, req.SessionID, nil)
		out.Message = "No datasets available to search. Have you deployed datasets? " +
			"If you believe this is an error, please contact support."
		out.DurationMS = time.Since(start).Milliseconds()
		return out
	}

	// Policy: all of a user's datasets are assumed to share one data source,
	// so the first candidate's source id is used globally.
	dataSourceID := candidates[0].DataSourceID
	out.DataSourceID = &dataSourceID
	s.publishDataSourceID(ctx, req.SessionID, &dataSourceID)

	// The dialect lookup runs concurrently with value search and is joined
	// before the response is assembled.
	syntaxDone := make(chan struct{})
	go func() {
		defer close(syntaxDone)
		s.resolveSyntax(ctx, req.SessionID, dataSourceID)
	}()

	_, foundValues := s.values.FindValues(ctx, dataSourceID, req.ValueSearchTerms)
	s.logger.Debug("Value search complete", zap.Int("found_values", len(foundValues)))

	userRequest := s.userRequest(ctx, req)

	if len(req.SpecificQueries) == 0 && len(req.ExploratoryTopics) == 0 && len(foundValues) == 0 {
		<-syntaxDone
		s.publishFlags(ctx, req.SessionID, false)
		out.Message = "No search queries, exploratory topics, or found values from provided terms."
		out.DurationMS = time.Since(start).Milliseconds()
		return out
	}

	documents := make([]string, len(candidates))
	for i, d := range candidates {
		documents[i] = d.Document
	}

	warnings := &warningCollector{}

	specificRanked := s.rankGroup(ctx, req.SpecificQueries, candidates, documents, warnings, "specific query")
	exploratoryRanked := s.rankGroup(ctx, req.ExploratoryTopics, candidates, documents, warnings, "exploratory topic")

	specificFiltered := s.filterGroup(ctx, specificRanked, userRequest, foundValues, warnings, "specific query", s.filter.FilterSpecific)
	exploratoryFiltered := s.filterGroup(ctx, exploratoryRanked, userRequest, foundValues, warnings, "exploratory topic", s.filter.FilterExploratory)

	combined := mergeResults(specificFiltered, exploratoryFiltered)

	for _, r := range combined {
		result := domain.DatasetResult{ID: r.ID, Name: r.Name, Document: r.Document}
		if r.Document != "" {
			result.Document = s.enrich.Enrich(r.Document, foundValues)
		}
		out.Results = append(out.Results, result)
	}

	<-syntaxDone

	out.Message = s.buildMessage(len(out.Results), warnings.list())
	s.publishFlags(ctx, req.SessionID, len(out.Results) > 0)
	out.DurationMS = time.Since(start).Milliseconds()
	return out
}

// collectCandidates fetches permissioned datasets and drops those without a
// semantic document; they cannot be reranked.
func (s *Service) collectCandidates(ctx context.Context, userID uuid.UUID) ([]domain.Dataset, error) {
	datasets, err := s.store.ListPermissioned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	candidates := make([]domain.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if d.HasDocument() {
			candidates = append(candidates, d)
		}
	}
	s.logger.Debug("Collected candidate datasets",
		zap.Int("total", len(datasets)),
		zap.Int("with_document", len(candidates)),
	)
	return candidates, nil
}

// rankGroup reranks every query in the group concurrently, capped at fanout
// in-flight calls. Results preserve the input query order; a failed rerank
// yields an empty shortlist plus a warning.
func (s *Service) rankGroup(
	ctx context.Context, queries []string,
	datasets []domain.Dataset, documents []string,
	warnings *warningCollector, kind string,
) []rankedBranch {
	if len(queries) == 0 {
		return nil
	}

	branches := make([]rankedBranch, len(queries))
	pool, err := ants.NewPool(fanout)
	if err != nil {
		// Pool construction only fails on invalid size; fall back to serial.
		s.logger.Error("Failed to create rank pool, running serially", zap.Error(err))
		for i, q := range queries {
			branches[i] = s.rankOne(ctx, q, datasets, documents, warnings, kind)
		}
		return branches
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		submit := func() {
			defer wg.Done()
			branches[i] = s.rankOne(ctx, q, datasets, documents, warnings, kind)
		}
		if err := pool.Submit(submit); err != nil {
			submit()
		}
	}
	wg.Wait()
	return branches
}

func (s *Service) rankOne(
	ctx context.Context, query string,
	datasets []domain.Dataset, documents []string,
	warnings *warningCollector, kind string,
) rankedBranch {
	ranked, err := s.ranker.Rank(ctx, query, datasets, documents)
	if err != nil {
		s.logger.Error("Reranking failed",
			zap.String("kind", kind),
			zap.String("query", query),
			zap.Error(err),
		)
		warnings.add(fmt.Sprintf("Failed to rerank for %s '%s': %v", kind, query, err))
		return rankedBranch{query: query}
	}
	return rankedBranch{query: query, ranked: ranked}
}

// filterFunc is either FilterSpecific or FilterExploratory.
type filterFunc func(ctx context.Context, query, userRequest string, ranked []domain.Dataset, found []domain.FoundValue) ([]domain.FilteredDataset, error)

// filterGroup runs the LLM filter for every ranked branch concurrently,
// capped at fanout in-flight calls, independently of the rank cap. A branch
// with no ranked candidates is skipped without a provider call.
func (s *Service) filterGroup(
	ctx context.Context, branches []rankedBranch,
	userRequest string, found []domain.FoundValue,
	warnings *warningCollector, kind string, fn filterFunc,
) [][]domain.FilteredDataset {
	if len(branches) == 0 {
		return nil
	}

	results := make([][]domain.FilteredDataset, len(branches))
	pool, err := ants.NewPool(fanout)
	if err != nil {
		s.logger.Error("Failed to create filter pool, running serially", zap.Error(err))
		for i, b := range branches {
			results[i] = s.filterOne(ctx, b, userRequest, found, warnings, kind, fn)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		submit := func() {
			defer wg.Done()
			results[i] = s.filterOne(ctx, b, userRequest, found, warnings, kind, fn)
		}
		if err := pool.Submit(submit); err != nil {
			submit()
		}
	}
	wg.Wait()
	return results
}

func (s *Service) filterOne(
	ctx context.Context, branch rankedBranch,
	userRequest string, found []domain.FoundValue,
	warnings *warningCollector, kind string, fn filterFunc,
) []domain.FilteredDataset {
	if len(branch.ranked) == 0 {
		return nil
	}
	filtered, err := fn(ctx, branch.query, userRequest, branch.ranked, found)
	if err != nil {
		s.logger.Error("LLM filtering failed",
			zap.String("kind", kind),
			zap.String("query", branch.query),
			zap.Error(err),
		)
		warnings.add(fmt.Sprintf("Failed to filter for %s '%s': %v", kind, branch.query, err))
		return nil
	}
	return filtered
}

// mergeResults concatenates all specific results then all exploratory
// results, in input order within each group, deduplicating by dataset
// identity and keeping each identity's first occurrence.
func mergeResults(specific, exploratory [][]domain.FilteredDataset) []domain.FilteredDataset {
	var combined []domain.FilteredDataset
	seen := make(map[uuid.UUID]struct{})

	for _, group := range [][][]domain.FilteredDataset{specific, exploratory} {
		for _, branch := range group {
			for _, d := range branch {
				if _, dup := seen[d.ID]; dup {
					continue
				}
				seen[d.ID] = struct{}{}
				combined = append(combined, d)
			}
		}
	}
	return combined
}

func (s *Service) buildMessage(resultCount int, warnings []string) string {
	var msg string
	if resultCount == 0 {
		msg = "No relevant datasets found after filtering."
	} else {
		msg = fmt.Sprintf("Found %d relevant datasets with injected values for searchable dimensions.", resultCount)
	}

	if len(warnings) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		b.WriteString("\nWarning: Some parts of the search failed:")
		for _, w := range warnings {
			b.WriteString("\n - ")
			b.WriteString(w)
		}
		msg = b.String()
	}
	return msg
}

// userRequest prefers the request payload, then the stored session prompt,
// then a fixed sentinel.
func (s *Service) userRequest(ctx context.Context, req domain.SearchRequest) string {
	if req.UserRequest != "" {
		return req.UserRequest
	}
	if req.SessionID != uuid.Nil {
		prompt, ok, err := s.session.UserPrompt(ctx, req.SessionID)
		if err != nil {
			s.logger.Warn("Failed to read user prompt from session", zap.Error(err))
		} else if ok {
			return prompt
		}
	}
	s.logger.Warn("User prompt not found for value-grounded filtering")
	return fallbackUserPrompt
}

// resolveSyntax looks up the data source dialect and publishes it to session
// state, failing closed to an explicit null.
func (s *Service) resolveSyntax(ctx context.Context, sessionID, dataSourceID uuid.UUID) {
	dialect, err := s.store.LookupSourceDialect(ctx, dataSourceID)
	if err != nil {
		s.logger.Warn("Failed to determine data source syntax, publishing null",
			zap.String("data_source_id", dataSourceID.String()),
			zap.Error(err),
		)
		dialect = ""
	} else {
		s.logger.Debug("Determined data source syntax",
			zap.String("data_source_id", dataSourceID.String()),
			zap.String("syntax", dialect),
		)
	}
	if sessionID == uuid.Nil {
		return
	}
	if err := s.session.PublishDataSourceSyntax(ctx, sessionID, dialect); err != nil {
		s.logger.Warn("Failed to publish data source syntax", zap.Error(err))
	}
}

func (s *Service) publishDataSourceID(ctx context.Context, sessionID uuid.UUID, id *uuid.UUID) {
	if sessionID == uuid.Nil {
		return
	}
	if err := s.session.PublishDataSourceID(ctx, sessionID, id); err != nil {
		s.logger.Warn("Failed to publish data source id", zap.Error(err))
	}
}

func (s *Service) publishFlags(ctx context.Context, sessionID uuid.UUID, dataContextFound bool) {
	if sessionID == uuid.Nil {
		return
	}
	if err := s.session.PublishSearchFlags(ctx, sessionID, dataContextFound); err != nil {
		s.logger.Warn("Failed to publish search flags", zap.Error(err))
	}
}
