// Package cache holds the documents resolved for citations in the active chat.
package cache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/models"
)

// FetchFunc resolves a citation to its documents.
type FetchFunc func(ctx context.Context, citationID string) ([]models.Document, error)

// DocumentCache maps citation IDs to resolved documents.
// Entries never expire; the owner replaces or clears the cache when the
// active chat changes. Only non-empty results are stored, so failed or
// empty lookups are retried on the next request.
type DocumentCache struct {
	items   *gocache.Cache
	metrics *metrics.Collector
}

// Option configures a DocumentCache.
type Option func(*DocumentCache)

// WithMetrics records hits and misses on mc.
func WithMetrics(mc *metrics.Collector) Option {
	return func(c *DocumentCache) {
		c.metrics = mc
	}
}

// New creates an empty cache.
func New(opts ...Option) *DocumentCache {
	c := &DocumentCache{
		// no expiration and no janitor goroutine
		items: gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached documents for a citation.
func (c *DocumentCache) Get(citationID string) ([]models.Document, bool) {
	v, ok := c.items.Get(citationID)
	if !ok {
		return nil, false
	}
	return v.([]models.Document), true
}

// Set stores documents for a citation. Empty results are ignored.
func (c *DocumentCache) Set(citationID string, docs []models.Document) {
	if len(docs) == 0 {
		return
	}
	c.items.Set(citationID, docs, gocache.NoExpiration)
}

// GetOrFetch returns cached documents or calls fetch on a miss.
// The fetch error, if any, is returned unchanged and nothing is stored.
func (c *DocumentCache) GetOrFetch(ctx context.Context, citationID string, fetch FetchFunc) ([]models.Document, error) {
	if docs, ok := c.Get(citationID); ok {
		c.metrics.Incr(metrics.CounterCacheHit)
		return docs, nil
	}
	c.metrics.Incr(metrics.CounterCacheMiss)

	docs, err := fetch(ctx, citationID)
	if err != nil {
		return nil, err
	}
	c.Set(citationID, docs)
	return docs, nil
}

// Len returns the number of cached citations.
func (c *DocumentCache) Len() int {
	return c.items.ItemCount()
}

// Clear drops every entry.
func (c *DocumentCache) Clear() {
	c.items.Flush()
}
