package values

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	vectors [][]float32
	err     error
	called  bool
	gotLen  int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.called = true
	m.gotLen = len(texts)
	return m.vectors, m.err
}

type mockIndex struct {
	byVectorFirst map[float32][]domain.FoundValue
	errOnFirst    map[float32]error
	calls         int
}

func (m *mockIndex) Search(
	_ context.Context, _ uuid.UUID, vector []float32, _ int,
) ([]domain.FoundValue, error) {
	m.calls++
	if len(vector) == 0 {
		return nil, errors.New("empty vector")
	}
	if err := m.errOnFirst[vector[0]]; err != nil {
		return nil, err
	}
	return m.byVectorFirst[vector[0]], nil
}

func fv(value string) domain.FoundValue {
	return domain.FoundValue{
		Value:    value,
		Database: "analytics",
		Schema:   "public",
		Table:    "orders",
		Column:   "customer",
	}
}

func TestFindValues_AllTermsFiltered(t *testing.T) {
	embed := &mockEmbedder{}
	idx := &mockIndex{}
	svc := New(embed, idx, zap.NewNop())

	byTerm, all := svc.FindValues(context.Background(), uuid.New(), []string{"today", "q1"})

	if embed.called {
		t.Error("embedder called despite all terms filtered")
	}
	if len(byTerm) != 0 || len(all) != 0 {
		t.Errorf("got byTerm=%v all=%v, want empty", byTerm, all)
	}
}

func TestFindValues_EmbedFailureDegradesToEmpty(t *testing.T) {
	embed := &mockEmbedder{err: errors.New("provider down")}
	idx := &mockIndex{}
	svc := New(embed, idx, zap.NewNop())

	byTerm, all := svc.FindValues(context.Background(), uuid.New(), []string{"Red Bull"})

	if idx.calls != 0 {
		t.Errorf("index searched %d times despite embed failure", idx.calls)
	}
	if len(byTerm) != 0 || len(all) != 0 {
		t.Errorf("got byTerm=%v all=%v, want empty", byTerm, all)
	}
}

func TestFindValues_PerTermSearchFailureIsolated(t *testing.T) {
	embed := &mockEmbedder{vectors: [][]float32{{1}, {2}}}
	idx := &mockIndex{
		byVectorFirst: map[float32][]domain.FoundValue{
			1: {fv("Red Bull")},
		},
		errOnFirst: map[float32]error{
			2: errors.New("index offline"),
		},
	}
	svc := New(embed, idx, zap.NewNop())

	byTerm, all := svc.FindValues(context.Background(), uuid.New(), []string{"Red Bull", "Monster"})

	if len(byTerm) != 2 {
		t.Fatalf("got %d terms, want 2", len(byTerm))
	}
	if len(byTerm["Red Bull"]) != 1 || byTerm["Red Bull"][0].Value != "Red Bull" {
		t.Errorf("Red Bull results = %v", byTerm["Red Bull"])
	}
	if len(byTerm["Monster"]) != 0 {
		t.Errorf("failed term should have no values, got %v", byTerm["Monster"])
	}
	if len(all) != 1 {
		t.Errorf("flattened values = %v, want 1 entry", all)
	}
}

func TestFindValues_EmbeddingCountMismatchDropsTail(t *testing.T) {
	// Two surviving terms but only one embedding returned: the unmatched term
	// is skipped without a search.
	embed := &mockEmbedder{vectors: [][]float32{{1}}}
	idx := &mockIndex{
		byVectorFirst: map[float32][]domain.FoundValue{1: {fv("Red Bull")}},
	}
	svc := New(embed, idx, zap.NewNop())

	byTerm, _ := svc.FindValues(context.Background(), uuid.New(), []string{"Red Bull", "Monster"})

	if idx.calls != 1 {
		t.Errorf("index called %d times, want 1", idx.calls)
	}
	if _, ok := byTerm["Monster"]; ok {
		t.Error("unmatched term should not appear in results")
	}
}

func TestFindValues_SanitizesBeforeEmbedding(t *testing.T) {
	embed := &mockEmbedder{vectors: [][]float32{{1}}}
	idx := &mockIndex{}
	svc := New(embed, idx, zap.NewNop())

	svc.FindValues(context.Background(), uuid.New(), []string{"Red Bull", "last month", "x"})

	if embed.gotLen != 1 {
		t.Errorf("embedded %d terms, want 1 after sanitization", embed.gotLen)
	}
}
