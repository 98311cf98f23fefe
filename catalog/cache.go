package catalog

import (
	"sync"
	"time"

	"midloop/content"
)

// DefaultTTL is how long a loaded category stays fresh.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	items    []content.StandardItem
	loadedAt time.Time
}

// Cache holds loaded categories with wall-clock timestamps. Entries older
// than the TTL read as absent and are replaced on the next load.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache returns a cache with the given TTL; zero means DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock swaps the cache's clock, for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Get(key string) ([]content.StandardItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.loadedAt) >= c.ttl {
		return nil, false
	}
	return e.items, true
}

func (c *Cache) Set(key string, items []content.StandardItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{items: items, loadedAt: c.now()}
}

// LoadedAt reports when key was last stored, fresh or not.
func (c *Cache) LoadedAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.loadedAt, ok
}

func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
