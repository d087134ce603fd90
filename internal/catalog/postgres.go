package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const dbTimeout = 5 * time.Second

const selectColumns = `id, title, description, content_type, url, source, duration, language,
	fslsm_dimension, fslsm_category, difficulty, primary_concepts, learning_outcomes,
	semantic_keywords, primary_sa_level, secondary_sa_levels, active, embedding, embedding_calculated`

// PostgresCatalog stores microcontents in the microcontents table.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalog creates a PostgreSQL-backed catalog.
func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// ListWithEmbeddings returns every active item, with or without an embedding,
// most recently updated first.
func (c *PostgresCatalog) ListWithEmbeddings(ctx context.Context) ([]recommend.ContentItem, error) {
	return c.query(ctx, `SELECT `+selectColumns+`
		FROM microcontents
		WHERE active
		ORDER BY updated_at DESC, id`)
}

// ListMissingEmbeddings returns active items that still need an embedding.
func (c *PostgresCatalog) ListMissingEmbeddings(ctx context.Context) ([]recommend.ContentItem, error) {
	return c.query(ctx, `SELECT `+selectColumns+`
		FROM microcontents
		WHERE active AND NOT embedding_calculated
		ORDER BY id`)
}

// Upsert inserts an item or replaces every field of an existing one.
func (c *PostgresCatalog) Upsert(ctx context.Context, item recommend.ContentItem) error {
	if item.ID == "" {
		return errors.New("content item ID is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	secondary := make([]string, 0, len(item.SecondaryLevels))
	for _, l := range item.SecondaryLevels {
		secondary = append(secondary, string(l))
	}
	vec, embedded := item.Embedding.Vector()

	_, err := c.pool.Exec(ctx, `
		INSERT INTO microcontents (
			id, title, description, content_type, url, source, duration, language,
			fslsm_dimension, fslsm_category, difficulty, primary_concepts, learning_outcomes,
			semantic_keywords, primary_sa_level, secondary_sa_levels, active, embedding,
			embedding_calculated, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content_type = EXCLUDED.content_type,
			url = EXCLUDED.url,
			source = EXCLUDED.source,
			duration = EXCLUDED.duration,
			language = EXCLUDED.language,
			fslsm_dimension = EXCLUDED.fslsm_dimension,
			fslsm_category = EXCLUDED.fslsm_category,
			difficulty = EXCLUDED.difficulty,
			primary_concepts = EXCLUDED.primary_concepts,
			learning_outcomes = EXCLUDED.learning_outcomes,
			semantic_keywords = EXCLUDED.semantic_keywords,
			primary_sa_level = EXCLUDED.primary_sa_level,
			secondary_sa_levels = EXCLUDED.secondary_sa_levels,
			active = EXCLUDED.active,
			embedding = EXCLUDED.embedding,
			embedding_calculated = EXCLUDED.embedding_calculated,
			updated_at = NOW()`,
		item.ID, item.Title, item.Description, string(item.ContentType), item.URL, item.Source,
		item.Duration, item.Language, item.LearningStyle.Dimension, item.LearningStyle.Category,
		item.Difficulty, nonNil(item.PrimaryConcepts), nonNil(item.LearningOutcomes),
		nonNil(item.SemanticKeywords), string(item.PrimaryLevel), secondary, item.Active,
		nullIfEmpty(vec), embedded,
	)
	if err != nil {
		return fmt.Errorf("upsert microcontent %s: %w", item.ID, err)
	}
	return nil
}

// SetEmbedding stores a computed vector for an item and marks it calculated.
func (c *PostgresCatalog) SetEmbedding(ctx context.Context, id string, vector []float64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := c.pool.Exec(ctx, `
		UPDATE microcontents
		SET embedding = $2, embedding_calculated = TRUE, updated_at = NOW()
		WHERE id = $1`,
		id, vector,
	)
	if err != nil {
		return fmt.Errorf("set embedding %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Stats reports embedding coverage of active items.
func (c *PostgresCatalog) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total, withEmbedding int
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE embedding_calculated)
		FROM microcontents
		WHERE active`,
	).Scan(&total, &withEmbedding)
	if err != nil {
		return Stats{}, fmt.Errorf("count microcontents: %w", err)
	}
	return newStats(total, withEmbedding), nil
}

func (c *PostgresCatalog) query(ctx context.Context, sql string) ([]recommend.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query microcontents: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scan microcontents: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.CollectableRow) (recommend.ContentItem, error) {
	var (
		item       recommend.ContentItem
		contentTyp string
		primary    string
		secondary  []string
		vec        []float64
		calculated bool
	)
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &contentTyp, &item.URL, &item.Source,
		&item.Duration, &item.Language, &item.LearningStyle.Dimension, &item.LearningStyle.Category,
		&item.Difficulty, &item.PrimaryConcepts, &item.LearningOutcomes, &item.SemanticKeywords,
		&primary, &secondary, &item.Active, &vec, &calculated,
	)
	if err != nil {
		return recommend.ContentItem{}, err
	}

	item.ContentType = recommend.ContentType(contentTyp)
	item.PrimaryLevel = recommend.Level(primary)
	for _, l := range secondary {
		item.SecondaryLevels = append(item.SecondaryLevels, recommend.Level(l))
	}
	item.Embedding = recommend.EmbeddingFrom(vec, calculated)
	return item, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIfEmpty(v []float64) any {
	if len(v) == 0 {
		return nil
	}
	return v
}
