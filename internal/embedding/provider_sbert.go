package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SBERTProvider implements Provider for the sentence-transformers sidecar
// (all-MiniLM-L6-v2) exposing POST /embedding.
type SBERTProvider struct {
	baseURL string
	client  *http.Client
}

// SBERTOption configures an SBERTProvider.
type SBERTOption func(*SBERTProvider)

// WithSBERTHTTPClient sets a custom HTTP client.
func WithSBERTHTTPClient(client *http.Client) SBERTOption {
	return func(p *SBERTProvider) {
		p.client = client
	}
}

// NewSBERTProvider creates a new SBERT provider.
func NewSBERTProvider(baseURL string, opts ...SBERTOption) *SBERTProvider {
	p := &SBERTProvider{
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type sbertRequest struct {
	Text string `json:"text"`
}

type sbertResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (p *SBERTProvider) Name() string {
	return "sbert"
}

func (p *SBERTProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text is required")
	}

	body, err := json.Marshal(sbertRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embedding", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sbert api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out sbertResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("no embedding in response")
	}
	return out.Embedding, nil
}

func (p *SBERTProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
