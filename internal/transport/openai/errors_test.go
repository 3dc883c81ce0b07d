package openai

import (
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quarrydata/catalogscout/internal/domain"
)

func TestParseAPIError_RequestError(t *testing.T) {
	reqErr := &openai.RequestError{
		HTTPStatusCode: 429,
		Body:           []byte(`{"error": {"message": "rate limit exceeded"}}`),
	}

	got := parseAPIError(reqErr, domain.ErrEmbeddingProviderError)

	if !errors.Is(got, domain.ErrEmbeddingProviderError) {
		t.Errorf("err = %v, want wrapped sentinel", got)
	}
	if !strings.Contains(got.Error(), "429") || !strings.Contains(got.Error(), "rate limit exceeded") {
		t.Errorf("err = %v, missing status or detail", got)
	}
}

func TestParseAPIError_APIError(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 400, Message: "invalid model"}

	got := parseAPIError(apiErr, domain.ErrCompletionProviderError)

	if !errors.Is(got, domain.ErrCompletionProviderError) {
		t.Errorf("err = %v, want wrapped sentinel", got)
	}
	if !strings.Contains(got.Error(), "invalid model") {
		t.Errorf("err = %v, missing provider message", got)
	}
}

func TestParseAPIError_Opaque(t *testing.T) {
	got := parseAPIError(errors.New("dial tcp: timeout"), domain.ErrEmbeddingProviderError)
	if !errors.Is(got, domain.ErrEmbeddingProviderError) {
		t.Errorf("err = %v, want wrapped sentinel", got)
	}
}

func TestExtractDetail(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error": {"message": "nested"}}`, "nested"},
		{`{"detail": "flat detail"}`, "flat detail"},
		{`{"message": "flat message"}`, "flat message"},
		{`not json`, ""},
		{``, ""},
	}
	for _, c := range cases {
		if got := extractDetail([]byte(c.body)); got != c.want {
			t.Errorf("extractDetail(%q) = %q, want %q", c.body, got, c.want)
		}
	}
}
