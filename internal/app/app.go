// Package app assembles the components shared by the server and catalog binaries
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-suggest/internal/catalog"
	"github.com/p-n-ai/pai-suggest/internal/embedding"
	"github.com/p-n-ai/pai-suggest/internal/platform/config"
	"github.com/p-n-ai/pai-suggest/internal/platform/database"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// NewLogger builds the process logger from the log settings.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewEmbedder registers every configured provider on a router, in the order
// SBERT, OpenAI, Ollama, Google. Each provider gets retries and a circuit breaker.
func NewEmbedder(cfg config.EmbeddingConfig) *embedding.Router {
	client := &http.Client{Timeout: cfg.Timeout}
	router := embedding.NewRouter()

	register := func(p embedding.Provider) {
		router.Register(embedding.WithBreaker(embedding.WithRetry(p, cfg.Retries, cfg.RetryBackoff)))
		slog.Info("embedding provider registered", "provider", p.Name())
	}

	if cfg.SBERT.URL != "" {
		register(embedding.NewSBERTProvider(cfg.SBERT.URL, embedding.WithSBERTHTTPClient(client)))
	}

	if cfg.OpenAI.APIKey != "" {
		opts := []embedding.OpenAIOption{embedding.WithHTTPClient(client)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.Model != "" {
			opts = append(opts, embedding.WithModel(cfg.OpenAI.Model))
		}
		register(embedding.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
	}

	if cfg.Ollama.Enabled {
		opts := []embedding.OllamaOption{embedding.WithOllamaHTTPClient(client)}
		if cfg.Ollama.Model != "" {
			opts = append(opts, embedding.WithOllamaModel(cfg.Ollama.Model))
		}
		register(embedding.NewOllamaProvider(cfg.Ollama.URL, opts...))
	}

	if cfg.Google.APIKey != "" {
		opts := []embedding.GoogleOption{embedding.WithGoogleHTTPClient(client)}
		if cfg.Google.Model != "" {
			opts = append(opts, embedding.WithGoogleModel(cfg.Google.Model))
		}
		register(embedding.NewGoogleProvider(cfg.Google.APIKey, opts...))
	}

	return router
}

// Catalog is a candidate source that can also report embedding coverage.
type Catalog interface {
	recommend.ContentCatalog
	Stats(ctx context.Context) (catalog.Stats, error)
}

// OpenCatalog opens the configured catalog source. db is required for the
// postgres source and ignored otherwise.
func OpenCatalog(cfg config.CatalogConfig, db *database.DB) (Catalog, error) {
	switch cfg.Source {
	case config.CatalogFile:
		c, err := catalog.NewFileCatalog(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("load file catalog: %w", err)
		}
		return c, nil
	case config.CatalogPostgres:
		if db == nil {
			return nil, errors.New("postgres catalog requires a database connection")
		}
		return catalog.NewPostgresCatalog(db.Pool), nil
	case config.CatalogHTTP:
		return catalog.NewHTTPCatalog(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}
