package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const withEmbeddingsPath = "/api/microcontents/with-embeddings"

// HTTPCatalog reads candidates from a remote microcontent service.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTPCatalog.
type HTTPOption func(*HTTPCatalog)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPCatalog) {
		c.client = client
	}
}

// NewHTTPCatalog creates a client for the microcontent service at baseURL.
func NewHTTPCatalog(baseURL string, opts ...HTTPOption) *HTTPCatalog {
	c := &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListWithEmbeddings fetches the service's candidate list. Inactive records are dropped.
func (c *HTTPCatalog) ListWithEmbeddings(ctx context.Context) ([]recommend.ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+withEmbeddingsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("microcontent service error (status %d): %s", resp.StatusCode, string(body))
	}

	records, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}

	items := make([]recommend.ContentItem, 0, len(records))
	for _, r := range records {
		if item := r.Item(); item.Active {
			items = append(items, item)
		}
	}
	return items, nil
}

// Stats computes coverage from the fetched list.
func (c *HTTPCatalog) Stats(ctx context.Context) (Stats, error) {
	items, err := c.ListWithEmbeddings(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items), nil
}

// HealthCheck verifies the remote service answers.
func (c *HTTPCatalog) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
