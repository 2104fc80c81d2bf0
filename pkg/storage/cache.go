package storage

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

// RuntimeCache keeps reduced runtimes keyed by blob digest so watch mode and
// repeated comparisons skip reduction of unchanged inputs.
type RuntimeCache struct {
	cache  *lru.LRU[string, *reduced.Runtime]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time view of cache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	ItemCount int
	HitRate   float64
}

// NewRuntimeCache creates a cache holding at most size runtimes for ttl each.
// A zero ttl keeps entries until evicted.
func NewRuntimeCache(size int, ttl time.Duration) *RuntimeCache {
	if size < 1 {
		size = 1
	}
	return &RuntimeCache{
		cache: lru.NewLRU[string, *reduced.Runtime](size, nil, ttl),
	}
}

// Get returns the runtime reduced from the blob with this digest.
func (c *RuntimeCache) Get(digest string) (*reduced.Runtime, bool) {
	rt, ok := c.cache.Get(digest)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return rt, true
}

// Add stores a runtime.
func (c *RuntimeCache) Add(digest string, rt *reduced.Runtime) {
	if rt == nil {
		return
	}
	c.cache.Add(digest, rt)
}

// Purge drops every entry.
func (c *RuntimeCache) Purge() {
	c.cache.Purge()
}

// Stats returns cache statistics
func (c *RuntimeCache) Stats() CacheStats {
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: c.cache.Len(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
