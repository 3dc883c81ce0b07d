package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
	cataloguc "github.com/quarrydata/catalogscout/internal/usecase/catalog"
)

// --- Mocks ---

type stubStore struct{ datasets []domain.Dataset }

func (s *stubStore) ListPermissioned(_ context.Context, _ uuid.UUID) ([]domain.Dataset, error) {
	return s.datasets, nil
}

func (s *stubStore) LookupSourceDialect(_ context.Context, _ uuid.UUID) (string, error) {
	return "postgres", nil
}

type stubSession struct{}

func (stubSession) UserPrompt(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (stubSession) PublishDataSourceID(_ context.Context, _ uuid.UUID, _ *uuid.UUID) error {
	return nil
}
func (stubSession) PublishDataSourceSyntax(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
func (stubSession) PublishSearchFlags(_ context.Context, _ uuid.UUID, _ bool) error {
	return nil
}

type stubValues struct{}

func (stubValues) FindValues(
	_ context.Context, _ uuid.UUID, _ []string,
) (map[string][]domain.FoundValue, []domain.FoundValue) {
	return nil, nil
}

type stubRanker struct{}

func (stubRanker) Rank(
	_ context.Context, _ string, datasets []domain.Dataset, _ []string,
) ([]domain.Dataset, error) {
	return datasets, nil
}

type stubFilterer struct{}

func (stubFilterer) FilterSpecific(
	_ context.Context, _, _ string, ranked []domain.Dataset, _ []domain.FoundValue,
) ([]domain.FilteredDataset, error) {
	out := make([]domain.FilteredDataset, 0, len(ranked))
	for _, d := range ranked {
		out = append(out, domain.FilteredDataset{ID: d.ID, Name: d.Name, Document: d.Document})
	}
	return out, nil
}

func (f stubFilterer) FilterExploratory(
	ctx context.Context, topic, userRequest string, ranked []domain.Dataset, found []domain.FoundValue,
) ([]domain.FilteredDataset, error) {
	return f.FilterSpecific(ctx, topic, userRequest, ranked, found)
}

type stubEnricher struct{}

func (stubEnricher) Enrich(document string, _ []domain.FoundValue) string { return document }

func newTestHandler(datasets []domain.Dataset) http.Handler {
	pipeline := cataloguc.New(
		&stubStore{datasets: datasets},
		stubSession{},
		stubValues{},
		stubRanker{},
		stubFilterer{},
		stubEnricher{},
		zap.NewNop(),
	)
	return NewServer(pipeline, zap.NewNop()).Router(nil)
}

func TestHandleSearch_MalformedBody_400(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest("POST", "/v1/catalog/search", strings.NewReader("{broken"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_MissingUserID_400(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest("POST", "/v1/catalog/search",
		strings.NewReader(`{"specific_queries": ["revenue"]}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_EmptyCatalog_200(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest("POST", "/v1/catalog/search",
		strings.NewReader(`{"user_id": "`+uuid.NewString()+`"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var out domain.SearchOutput
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(out.Message, "No datasets available to search") {
		t.Errorf("message = %q", out.Message)
	}
}

func TestHandleSearch_PipelineRun_200(t *testing.T) {
	sourceID := uuid.New()
	ds := domain.Dataset{
		ID:           uuid.New(),
		Name:         "orders",
		Document:     "models: []",
		DataSourceID: sourceID,
	}
	handler := newTestHandler([]domain.Dataset{ds})

	body := `{"user_id": "` + uuid.NewString() + `", "specific_queries": ["revenue by month"]}`
	req := httptest.NewRequest("POST", "/v1/catalog/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var out domain.SearchOutput
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].ID != ds.ID {
		t.Errorf("results = %+v", out.Results)
	}
	if out.DataSourceID == nil || *out.DataSourceID != sourceID {
		t.Error("data_source_id missing from response")
	}
}

func TestHandleToolSchema(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest("GET", "/v1/tools/search_data_catalog/schema", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var schema struct {
		Name       string          `json:"name"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if schema.Name != "search_data_catalog" {
		t.Errorf("schema name = %q", schema.Name)
	}
	if len(schema.Parameters) == 0 {
		t.Error("schema parameters missing")
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
	}
}
