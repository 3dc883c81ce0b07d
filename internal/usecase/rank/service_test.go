package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// --- Mocks ---

type mockReranker struct {
	indices  []int
	err      error
	called   bool
	gotTopN  int
	gotQuery string
}

func (m *mockReranker) Rerank(_ context.Context, query string, _ []string, topN int) ([]int, error) {
	m.called = true
	m.gotQuery = query
	m.gotTopN = topN
	return m.indices, m.err
}

func makeDatasets(n int) ([]domain.Dataset, []string) {
	datasets := make([]domain.Dataset, n)
	documents := make([]string, n)
	for i := range datasets {
		datasets[i] = domain.Dataset{ID: uuid.New(), Name: "ds", Document: "doc"}
		documents[i] = datasets[i].Document
	}
	return datasets, documents
}

func TestRank_EmptyCandidates_NoProviderCall(t *testing.T) {
	rr := &mockReranker{}
	svc := New(rr, zap.NewNop())

	got, err := svc.Rank(context.Background(), "revenue", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
	if rr.called {
		t.Error("reranker called with no candidates")
	}
}

func TestRank_ProviderError(t *testing.T) {
	rr := &mockReranker{err: errors.New("rate limited")}
	svc := New(rr, zap.NewNop())
	datasets, documents := makeDatasets(3)

	_, err := svc.Rank(context.Background(), "revenue", datasets, documents)
	if err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestRank_PreservesRerankOrder(t *testing.T) {
	rr := &mockReranker{indices: []int{2, 0}}
	svc := New(rr, zap.NewNop())
	datasets, documents := makeDatasets(3)

	got, err := svc.Rank(context.Background(), "revenue", datasets, documents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d datasets, want 2", len(got))
	}
	if got[0].ID != datasets[2].ID || got[1].ID != datasets[0].ID {
		t.Error("ranked order does not follow reranker indices")
	}
}

func TestRank_DropsOutOfRangeIndices(t *testing.T) {
	rr := &mockReranker{indices: []int{0, 7, -1, 1}}
	svc := New(rr, zap.NewNop())
	datasets, documents := makeDatasets(2)

	got, err := svc.Rank(context.Background(), "revenue", datasets, documents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d datasets, want 2 (out-of-range dropped)", len(got))
	}
}

func TestRank_RequestsFixedShortlist(t *testing.T) {
	rr := &mockReranker{indices: []int{0}}
	svc := New(rr, zap.NewNop())
	datasets, documents := makeDatasets(1)

	if _, err := svc.Rank(context.Background(), "churn drivers", datasets, documents); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.gotTopN != topN {
		t.Errorf("topN = %d, want %d", rr.gotTopN, topN)
	}
	if rr.gotQuery != "churn drivers" {
		t.Errorf("query = %q", rr.gotQuery)
	}
}
