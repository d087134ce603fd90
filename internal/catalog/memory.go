package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// Stats summarises embedding coverage of the active catalog.
type Stats struct {
	Total                int `json:"total"`
	WithEmbedding        int `json:"withEmbedding"`
	WithoutEmbedding     int `json:"withoutEmbedding"`
	CompletionPercentage int `json:"completionPercentage"`
}

// ComputeStats counts embedded and un-embedded active items.
func ComputeStats(items []recommend.ContentItem) Stats {
	var s Stats
	for _, item := range items {
		if !item.Active {
			continue
		}
		s.Total++
		if item.Embedding.IsEmbedded() {
			s.WithEmbedding++
		}
	}
	return newStats(s.Total, s.WithEmbedding)
}

func newStats(total, withEmbedding int) Stats {
	s := Stats{
		Total:            total,
		WithEmbedding:    withEmbedding,
		WithoutEmbedding: total - withEmbedding,
	}
	if total > 0 {
		s.CompletionPercentage = (withEmbedding*100 + total/2) / total
	}
	return s
}

// MemoryCatalog is a thread-safe in-memory content store that keeps
// insertion order.
type MemoryCatalog struct {
	mu    sync.RWMutex
	order []string
	items map[string]recommend.ContentItem
}

// NewMemoryCatalog creates a catalog holding items.
func NewMemoryCatalog(items ...recommend.ContentItem) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[string]recommend.ContentItem)}
	for _, item := range items {
		c.put(item)
	}
	return c
}

// Upsert inserts or replaces an item by ID. Replacing keeps the item's position.
func (c *MemoryCatalog) Upsert(_ context.Context, item recommend.ContentItem) error {
	if item.ID == "" {
		return errors.New("content item ID is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(item)
	return nil
}

func (c *MemoryCatalog) put(item recommend.ContentItem) {
	if _, exists := c.items[item.ID]; !exists {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item
}

// ListWithEmbeddings returns every active item, embedded or not.
func (c *MemoryCatalog) ListWithEmbeddings(_ context.Context) ([]recommend.ContentItem, error) {
	return c.filter(func(item recommend.ContentItem) bool { return item.Active }), nil
}

// ListMissingEmbeddings returns active items that have no embedding yet.
func (c *MemoryCatalog) ListMissingEmbeddings(_ context.Context) ([]recommend.ContentItem, error) {
	return c.filter(func(item recommend.ContentItem) bool {
		return item.Active && !item.Embedding.IsEmbedded()
	}), nil
}

// SetEmbedding stores a computed vector for an item.
func (c *MemoryCatalog) SetEmbedding(_ context.Context, id string, vector []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	item.Embedding = recommend.Embedded(vector)
	c.items[id] = item
	return nil
}

// Stats reports embedding coverage.
func (c *MemoryCatalog) Stats(ctx context.Context) (Stats, error) {
	items, _ := c.ListWithEmbeddings(ctx)
	return ComputeStats(items), nil
}

// Len returns the number of stored items, active or not.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *MemoryCatalog) filter(keep func(recommend.ContentItem) bool) []recommend.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]recommend.ContentItem, 0, len(c.order))
	for _, id := range c.order {
		if item := c.items[id]; keep(item) {
			out = append(out, item)
		}
	}
	return out
}
