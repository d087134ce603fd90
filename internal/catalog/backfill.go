package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// EmbeddingStore is a catalog that can report and fill in missing embeddings.
type EmbeddingStore interface {
	ListMissingEmbeddings(ctx context.Context) ([]recommend.ContentItem, error)
	SetEmbedding(ctx context.Context, id string, vector []float64) error
}

// BackfillResult reports a backfill run.
type BackfillResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

// Backfill computes embeddings for every item that lacks one. A failure on one
// item is counted and logged; the run continues with the next item. Only a
// failure to list the items, or a cancelled context, stops the run.
func Backfill(ctx context.Context, store EmbeddingStore, embedder recommend.Embedder) (BackfillResult, error) {
	items, err := store.ListMissingEmbeddings(ctx)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("listing items without embeddings: %w", err)
	}

	result := BackfillResult{Total: len(items)}
	slog.Info("backfilling embeddings", "items", len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		vec, err := embedder.Embed(ctx, EmbeddingText(item))
		if err == nil && len(vec) == 0 {
			err = errors.New("empty embedding")
		}
		if err == nil {
			err = store.SetEmbedding(ctx, item.ID, vec)
		}
		if err != nil {
			result.Errors++
			slog.Warn("failed to embed content", "content_id", item.ID, "error", err)
			continue
		}

		result.Updated++
		slog.Debug("embedding stored",
			"content_id", item.ID,
			"progress", fmt.Sprintf("%d/%d", result.Updated, result.Total),
		)
	}

	slog.Info("backfill completed",
		"updated", result.Updated,
		"errors", result.Errors,
	)
	return result, nil
}

// Importer is a catalog that accepts new or updated items.
type Importer interface {
	Upsert(ctx context.Context, item recommend.ContentItem) error
}

// ImportResult reports an import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
	Total    int `json:"total"`
}

// Import validates and stores records. Invalid records and store failures are
// counted, not fatal. When embedder is non-nil, records without an embedding
// are embedded before storing; an embedding failure stores the record
// un-embedded for a later backfill.
func Import(ctx context.Context, store Importer, records []Record, embedder recommend.Embedder) (ImportResult, error) {
	result := ImportResult{Total: len(records)}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := Validate(r); err != nil {
			result.Errors++
			slog.Warn("skipping invalid record", "error", err)
			continue
		}

		item := r.Item()
		if embedder != nil && !item.Embedding.IsEmbedded() {
			vec, err := embedder.Embed(ctx, EmbeddingText(item))
			if err != nil {
				slog.Warn("failed to embed content, storing without embedding",
					"content_id", item.ID,
					"error", err,
				)
			} else {
				item.Embedding = recommend.Embedded(vec)
			}
		}

		if err := store.Upsert(ctx, item); err != nil {
			result.Errors++
			slog.Warn("failed to store content", "content_id", item.ID, "error", err)
			continue
		}
		result.Imported++
	}

	slog.Info("import completed",
		"imported", result.Imported,
		"errors", result.Errors,
		"total", result.Total,
	)
	return result, nil
}
