package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// --- Mocks ---

type mockCompleter struct {
	content      string
	err          error
	called       bool
	gotPrompt    string
	gotMaxTokens int
}

func (m *mockCompleter) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	m.called = true
	m.gotPrompt = prompt
	m.gotMaxTokens = maxTokens
	return m.content, m.err
}

func makeRanked(n int) []domain.Dataset {
	out := make([]domain.Dataset, n)
	for i := range out {
		out[i] = domain.Dataset{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("ds_%d", i),
			Document: "models: []",
		}
	}
	return out
}

func TestFilterSpecific_EmptyRanked_NoProviderCall(t *testing.T) {
	llm := &mockCompleter{}
	svc := New(llm, zap.NewNop())

	got, err := svc.FilterSpecific(context.Background(), "q", "req", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
	if llm.called {
		t.Error("completer called with empty ranked set")
	}
}

func TestFilterSpecific_KeepsLLMOrder(t *testing.T) {
	ranked := makeRanked(3)
	llm := &mockCompleter{
		content: fmt.Sprintf(`{"results": ["%s", "%s"]}`, ranked[2].ID, ranked[0].ID),
	}
	svc := New(llm, zap.NewNop())

	got, err := svc.FilterSpecific(context.Background(), "q", "req", ranked, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID != ranked[2].ID || got[1].ID != ranked[0].ID {
		t.Error("results do not follow the completion's order")
	}
	if llm.gotMaxTokens != maxCompletionTokens {
		t.Errorf("maxTokens = %d, want %d", llm.gotMaxTokens, maxCompletionTokens)
	}
}

func TestFilter_DropsUnparseableAndUnknownIDs(t *testing.T) {
	ranked := makeRanked(1)
	hallucinated := uuid.New()
	llm := &mockCompleter{
		content: fmt.Sprintf(`{"results": ["not-a-uuid", "%s", "%s"]}`, hallucinated, ranked[0].ID),
	}
	svc := New(llm, zap.NewNop())

	got, err := svc.FilterSpecific(context.Background(), "q", "req", ranked, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != ranked[0].ID {
		t.Errorf("got %v, want only the ranked dataset", got)
	}
}

func TestFilter_ProviderError(t *testing.T) {
	llm := &mockCompleter{err: errors.New("quota exceeded")}
	svc := New(llm, zap.NewNop())

	_, err := svc.FilterExploratory(context.Background(), "topic", "req", makeRanked(1), nil)
	if err == nil {
		t.Fatal("expected error from provider failure")
	}
}

func TestFilter_MalformedCompletion(t *testing.T) {
	llm := &mockCompleter{content: "here are the results: ds_1"}
	svc := New(llm, zap.NewNop())

	_, err := svc.FilterSpecific(context.Background(), "q", "req", makeRanked(1), nil)
	if err == nil {
		t.Fatal("expected error for non-JSON completion")
	}
}

func TestBuildPrompt_SubstitutesPlaceholders(t *testing.T) {
	ranked := makeRanked(1)
	found := []domain.FoundValue{{
		Value: "Red Bull", Database: "analytics", Schema: "public",
		Table: "orders", Column: "product_name",
	}}

	prompt, err := buildPrompt(specificPrompt, "top products", "show top products", ranked, found)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, placeholder := range []string{"{user_request}", "{query}", "{found_values}", "{datasets_json}"} {
		if strings.Contains(prompt, placeholder) {
			t.Errorf("placeholder %s not substituted", placeholder)
		}
	}
	if !strings.Contains(prompt, "- 'Red Bull' (found in analytics.orders.product_name)") {
		t.Error("evidence line missing or misformatted")
	}
	if !strings.Contains(prompt, ranked[0].ID.String()) {
		t.Error("candidate dataset id missing from prompt")
	}
}

func TestFormatEvidence_EmptyUsesSentinel(t *testing.T) {
	if got := formatEvidence(nil); got != noValuesFound {
		t.Errorf("formatEvidence(nil) = %q, want sentinel", got)
	}
}
