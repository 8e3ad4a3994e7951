// Package searchcache memoizes search query results for a fixed TTL.
//
// The cache is a latency and cost optimization, never a correctness
// component: a miss always falls through to the resolver, and results stale
// within the TTL are an accepted trade-off. Query strings are used as
// literal keys, case and whitespace sensitive, matching the exact-match
// behavior of the upstream surface.
package searchcache

import (
	"context"
	"sync"
	"time"

	"tapedeck/internal/media"
)

const defaultTTL = time.Hour

// Cache memoizes search results.
type Cache interface {
	// Get returns the cached results for query, or false on a miss.
	// Entries are never served past their expiry.
	Get(ctx context.Context, query string) ([]media.Track, bool)

	// Set stores results for query with the cache's fixed TTL.
	// Empty result lists are cached like any other.
	Set(ctx context.Context, query string, results []media.Track)
}

// MemoryCache is the in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	results   []media.Track
	expiresAt time.Time
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl falls back to one
// hour.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns cached results, lazily dropping expired entries.
func (c *MemoryCache) Get(_ context.Context, query string) ([]media.Track, bool) {
	c.mu.RLock()
	e, ok := c.entries[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, ok := c.entries[query]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, query)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.results, true
}

// Set stores a copy of results so later mutation by the caller cannot leak
// into cached responses.
func (c *MemoryCache) Set(_ context.Context, query string, results []media.Track) {
	copied := make([]media.Track, len(results))
	copy(copied, results)

	c.mu.Lock()
	c.entries[query] = memoryEntry{results: copied, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
