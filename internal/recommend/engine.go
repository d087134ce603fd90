package recommend

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/p-n-ai/pai-suggest/internal/platform/metrics"
)

const (
	// DefaultLimit is the result count used when the caller does not supply one.
	DefaultLimit = 10

	// missingEmbeddingScore is the semantic score of an item without an embedding.
	// Low enough that un-embedded items sort below real matches.
	missingEmbeddingScore = 0.3

	defaultEmbedTimeout = 10 * time.Second
)

// Embedder turns free text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EngineConfig holds dependencies for the scoring engine.
type EngineConfig struct {
	Embedder     Embedder
	EmbedTimeout time.Duration // bound on the element embedding call (default 10s)
}

// Engine ranks content items against an instructional element.
// It keeps no per-request state and is safe for concurrent use.
type Engine struct {
	embedder     Embedder
	embedTimeout time.Duration
}

// NewEngine creates a new scoring engine.
func NewEngine(cfg EngineConfig) *Engine {
	timeout := cfg.EmbedTimeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &Engine{
		embedder:     cfg.Embedder,
		embedTimeout: timeout,
	}
}

// Rank scores every candidate against element and returns the best limit results,
// highest score first. Equal scores keep their input order.
//
// With no candidates the embedder is never called. A nil element returns the first
// limit candidates unscored.
func (e *Engine) Rank(ctx context.Context, element *Element, candidates []ContentItem, limit int) ([]Suggestion, error) {
	if limit <= 0 || len(candidates) == 0 {
		return []Suggestion{}, nil
	}

	if element == nil {
		return unranked(candidates, limit), nil
	}

	mode := ModeFor(*element)
	elementVec, err := e.embedElement(ctx, *element)
	if err != nil {
		return nil, err
	}

	slog.Debug("scoring candidates",
		"element_id", element.ID,
		"mode", mode,
		"candidates", len(candidates),
	)

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, item := range candidates {
		scores, err := scoreItem(elementVec, item, *element, mode)
		if err != nil {
			return nil, fmt.Errorf("score item %s: %w", item.ID, err)
		}
		suggestions = append(suggestions, Suggestion{ContentItem: item, Scores: scores})
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (e *Engine) embedElement(ctx context.Context, element Element) ([]float64, error) {
	if e.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	vec, err := e.embedder.Embed(ctx, element.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty element embedding", ErrEmbeddingUnavailable)
	}
	return vec, nil
}

// scoreItem computes the scores of a single candidate. It only reads its inputs.
func scoreItem(elementVec []float64, item ContentItem, element Element, mode ScoringMode) (*Scores, error) {
	semantic := missingEmbeddingScore
	if vec, ok := item.Embedding.Vector(); ok {
		sim, err := CosineSimilarity(elementVec, vec)
		if err != nil {
			return nil, err
		}
		semantic = sim
	} else {
		metrics.MissingEmbeddingFallbacks.Inc()
		slog.Warn("content missing embedding, using fallback score",
			"content_id", item.ID,
			"score", missingEmbeddingScore,
		)
	}

	scores := &Scores{
		ScoringMode:    mode,
		SemanticScore:  semantic,
		RelevanceScore: semantic,
	}

	if mode == ModeHybrid {
		sa := ScoreLevelMatch(item, element)
		scores.SAScore = &sa
		scores.RelevanceScore = (semantic + sa) / 2
		slog.Debug("scored content",
			"content_id", item.ID,
			"semantic", semantic,
			"sa", sa,
			"final", scores.RelevanceScore,
		)
	} else {
		slog.Debug("scored content",
			"content_id", item.ID,
			"semantic", semantic,
		)
	}

	scores.MatchQuality = Classify(scores.RelevanceScore, mode)
	return scores, nil
}

func unranked(candidates []ContentItem, limit int) []Suggestion {
	n := min(limit, len(candidates))
	out := make([]Suggestion, n)
	for i := range n {
		out[i] = Suggestion{ContentItem: candidates[i]}
	}
	return out
}
