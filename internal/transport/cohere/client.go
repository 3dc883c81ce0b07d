// Package cohere is a minimal client for a Cohere-compatible rerank endpoint.
// Only the /v2/rerank call is implemented; results come back as indices into
// the submitted document array.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
	"github.com/quarrydata/catalogscout/internal/metrics"
)

// DefaultModel is the cross-encoder used when none is configured.
const DefaultModel = "rerank-english-v3.0"

// Client calls a Cohere-compatible rerank API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	provider   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the rerank model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a rerank client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		model:    DefaultModel,
		provider: "cohere",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank cross-encodes the query against each document and returns the
// indices of the topN most relevant documents, best first. Indices reference
// the submitted document slice.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]int, error) {
	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, "rerank", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, "rerank", "transport").Inc()
		return nil, fmt.Errorf("%v: %w", err, domain.ErrRerankProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, "rerank", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, "rerank", "api_error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrRerankProviderError)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, "rerank", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, "rerank", "bad_response").Inc()
		return nil, fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankProviderError)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, "rerank", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, "rerank").Observe(duration.Seconds())

	indices := make([]int, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		indices = append(indices, r.Index)
	}
	return indices, nil
}
