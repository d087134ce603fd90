package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSBERTProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embedding" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		var req sbertRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Text != "Identify cognitive biases" {
			t.Errorf("text = %q", req.Text)
		}

		json.NewEncoder(w).Encode(sbertResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	provider := NewSBERTProvider(server.URL)

	vec, err := provider.Embed(context.Background(), "Identify cognitive biases")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || vec[2] != 0.3 {
		t.Errorf("vec = %v, want [0.1 0.2 0.3]", vec)
	}
}

func TestSBERTProvider_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer server.Close()

	provider := NewSBERTProvider(server.URL)

	if _, err := provider.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("Embed() should return error on API error")
	}
}

func TestSBERTProvider_Embed_EmptyText(t *testing.T) {
	provider := NewSBERTProvider("http://localhost:0")

	if _, err := provider.Embed(context.Background(), ""); err == nil {
		t.Fatal("Embed() should reject empty text")
	}
}

func TestSBERTProvider_Embed_EmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":[]}`))
	}))
	defer server.Close()

	provider := NewSBERTProvider(server.URL)

	if _, err := provider.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("Embed() should return error for empty embedding")
	}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-key")
		}

		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "text-embedding-3-large" {
			t.Errorf("model = %q, want text-embedding-3-large", req.Model)
		}

		w.Write([]byte(`{"data":[{"embedding":[0.5,0.5]}],"model":"text-embedding-3-large"}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key",
		WithBaseURL(server.URL),
		WithModel("text-embedding-3-large"),
	)

	vec, err := provider.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("len(vec) = %d, want 2", len(vec))
	}
}

func TestOpenAIProvider_Embed_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("k", WithBaseURL(server.URL))

	if _, err := provider.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("Embed() should return error when data is empty")
	}
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Ollama doesn't require an Authorization header.
		if r.Header.Get("Authorization") != "" {
			t.Error("Ollama should not send Authorization header")
		}

		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "hello" {
			t.Errorf("prompt = %q, want hello", req.Prompt)
		}
		if req.Model != defaultOllamaModel {
			t.Errorf("model = %q, want %q", req.Model, defaultOllamaModel)
		}

		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float64{1, 0}})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL)

	vec, err := provider.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 1 {
		t.Errorf("vec = %v, want [1 0]", vec)
	}
}

func TestGoogleProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/text-embedding-004:embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "g-key" {
			t.Errorf("key = %q, want g-key", r.URL.Query().Get("key"))
		}

		var req geminiEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Content.Parts) != 1 || req.Content.Parts[0].Text != "hello" {
			t.Errorf("unexpected content: %+v", req.Content)
		}

		w.Write([]byte(`{"embedding":{"values":[0.25,0.75]}}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("g-key", WithGoogleBaseURL(server.URL))

	vec, err := provider.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.75 {
		t.Errorf("vec = %v, want [0.25 0.75]", vec)
	}
}

func TestProviders_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		statusCode int
		build      func(url string) Provider
		wantErr    bool
	}{
		{"sbert healthy", "/health", http.StatusOK, func(u string) Provider { return NewSBERTProvider(u) }, false},
		{"sbert unhealthy", "/health", http.StatusServiceUnavailable, func(u string) Provider { return NewSBERTProvider(u) }, true},
		{"ollama healthy", "/api/tags", http.StatusOK, func(u string) Provider { return NewOllamaProvider(u) }, false},
		{"openai healthy", "/models", http.StatusOK, func(u string) Provider { return NewOpenAIProvider("k", WithBaseURL(u)) }, false},
		{"google unhealthy", "/models", http.StatusForbidden, func(u string) Provider { return NewGoogleProvider("k", WithGoogleBaseURL(u)) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := tt.build(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
