package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-suggest/internal/audit"
	"github.com/p-n-ai/pai-suggest/internal/platform/metrics"
)

// ContentCatalog supplies the candidate items. Items without embeddings must be
// included; the engine scores them with a fallback.
type ContentCatalog interface {
	ListWithEmbeddings(ctx context.Context) ([]ContentItem, error)
}

// SuggestionCache stores the last ranked list per element ID.
type SuggestionCache interface {
	Get(ctx context.Context, elementID string) ([]Suggestion, bool, error)
	Set(ctx context.Context, elementID string, suggestions []Suggestion) error
}

// Request is a single suggestion request. A nil Limit means DefaultLimit;
// a nil Element asks for the unranked catalog head.
type Request struct {
	Element *Element `json:"element,omitempty"`
	Limit   *int     `json:"limit,omitempty"`
}

// ServiceConfig holds dependencies for the suggestion service.
type ServiceConfig struct {
	Engine  *Engine
	Catalog ContentCatalog
	Cache   SuggestionCache   // optional; nil disables caching
	Events  audit.EventLogger // optional; nil discards events
}

// Service answers suggestion requests: fetch candidates, rank, record.
type Service struct {
	engine  *Engine
	catalog ContentCatalog
	cache   SuggestionCache
	events  audit.EventLogger
}

// NewService creates a new suggestion service.
func NewService(cfg ServiceConfig) *Service {
	events := cfg.Events
	if events == nil {
		events = audit.NopEventLogger{}
	}
	return &Service{
		engine:  cfg.Engine,
		catalog: cfg.Catalog,
		cache:   cfg.Cache,
		events:  events,
	}
}

// Suggest returns ranked suggestions for req.
func (s *Service) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	start := time.Now()

	var element *Element
	mode := "UNRANKED"
	if req.Element != nil {
		e := NormalizeElement(*req.Element)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		element = &e
		mode = string(ModeFor(e))
	}

	limit := DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	candidates, err := s.catalog.ListWithEmbeddings(ctx)
	if err != nil {
		metrics.SuggestionRequests.WithLabelValues(mode, "catalog_error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	slog.Info("ranking suggestions",
		"element_id", elementID(element),
		"mode", mode,
		"candidates", len(candidates),
		"limit", limit,
	)

	suggestions, err := s.engine.Rank(ctx, element, candidates, limit)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrEmbeddingUnavailable) {
			outcome = "embedding_error"
		}
		metrics.SuggestionRequests.WithLabelValues(mode, outcome).Inc()
		return nil, err
	}

	metrics.SuggestionRequests.WithLabelValues(mode, "ok").Inc()
	metrics.RankDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if element != nil {
		s.record(ctx, *element, mode, limit, suggestions)
	}
	return suggestions, nil
}

// Cached returns the last stored suggestions for an element.
func (s *Service) Cached(ctx context.Context, elementID string) ([]Suggestion, bool, error) {
	if s.cache == nil || elementID == "" {
		return nil, false, nil
	}
	return s.cache.Get(ctx, elementID)
}

// record writes the audit event and the cache entry. Failures are logged only.
func (s *Service) record(ctx context.Context, element Element, mode string, limit int, suggestions []Suggestion) {
	top := make([]map[string]any, 0, len(suggestions))
	for _, sg := range suggestions {
		top = append(top, map[string]any{
			"content_id":    sg.ID,
			"relevance":     sg.RelevanceScore,
			"match_quality": string(sg.MatchQuality),
		})
	}

	if err := s.events.LogEvent(audit.Event{
		ElementID: element.ID,
		EventType: audit.EventSuggestionsRanked,
		Data: map[string]any{
			"mode":     mode,
			"limit":    limit,
			"returned": len(suggestions),
			"results":  top,
		},
	}); err != nil {
		slog.Warn("failed to log scoring event", "element_id", element.ID, "error", err)
	}

	if s.cache == nil || element.ID == "" {
		return
	}
	if err := s.cache.Set(ctx, element.ID, suggestions); err != nil {
		slog.Warn("failed to cache suggestions", "element_id", element.ID, "error", err)
	}
}

func elementID(e *Element) string {
	if e == nil {
		return ""
	}
	return e.ID
}
