// Package cache provides a bounded, TTL-aware cache of query results.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/atsumeru/internal/models"
)

type entry struct {
	results   []*models.ScoredResult
	createdAt time.Time
	hitCount  int
}

// QueryCache caches ranked result summaries keyed by query parameters. It is
// bounded: inserting past capacity evicts the entry with the lowest hit count,
// oldest first among ties. Entries older than the TTL are treated as absent on
// read and removed lazily. Cached results carry no chunk text; callers
// rehydrate.
type QueryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*entry
	hits     uint64
	misses   uint64
}

// New creates a query cache with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *QueryCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &QueryCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*entry),
	}
}

// Key returns a deterministic cache key over the normalized query text and
// every ranking parameter that could change results, so varying a parameter
// never returns a stale answer for a different configuration.
func Key(queryText string, topK int, lexicalWeight, semanticWeight float64) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(queryText)), " ")
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%.6f|%.6f", normalized, topK, lexicalWeight, semanticWeight)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for key, or false on a miss. An entry past
// its TTL counts as a miss and is removed.
func (c *QueryCache) Get(key string) ([]*models.ScoredResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	e.hitCount++
	c.hits++
	out := make([]*models.ScoredResult, len(e.results))
	for i, r := range e.results {
		cp := *r
		out[i] = &cp
	}
	return out, true
}

// Put stores result summaries (text stripped) under key, evicting if needed.
func (c *QueryCache) Put(key string, results []*models.ScoredResult) {
	summaries := make([]*models.ScoredResult, len(results))
	for i, r := range results {
		summaries[i] = r.Summary()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = &entry{results: summaries, createdAt: time.Now()}
}

// evictLocked removes the entry with the lowest hit count, breaking ties by
// oldest creation time. Caller holds the lock.
func (c *QueryCache) evictLocked() {
	var victim string
	var victimEntry *entry
	for key, e := range c.entries {
		if victimEntry == nil ||
			e.hitCount < victimEntry.hitCount ||
			(e.hitCount == victimEntry.hitCount && e.createdAt.Before(victimEntry.createdAt)) {
			victim = key
			victimEntry = e
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
	}
}

// Purge drops all entries. Hit and miss counters are preserved.
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats returns current cache occupancy and counters.
func (c *QueryCache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CacheStats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}
