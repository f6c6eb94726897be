// Package cache provides a bounded decoded-content store with FIFO eviction.
//
// Eviction is by insertion order, deliberately not LRU: the review flow walks
// the catalog forward, so the oldest-inserted entry is also the least likely
// to be shown again. Order is tracked explicitly rather than relying on map
// iteration, which guarantees nothing.
package cache

import (
	"sync"

	"github.com/hpx/cull/internal/media"
)

// Cache is a fixed-capacity key→content store. Two independent instances are
// used in practice: one for full-resolution content, one for thumbnails.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*media.Content
	order    []string // insertion order, oldest first
}

// New creates a cache holding at most capacity entries. A capacity below 1
// is treated as 1.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*media.Content),
	}
}

// Put stores content under key, evicting oldest-inserted entries as needed so
// the cache never exceeds its capacity. Eviction happens under the same lock
// as the insert, so concurrent Puts cannot grow the cache past its bound.
// Re-putting an existing key replaces the value and keeps its original slot
// in the eviction order.
func (c *Cache) Put(key string, content *media.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = content
		return
	}

	c.entries[key] = content
	c.order = append(c.order, key)

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Get returns the content stored under key, if any. Get never mutates the
// cache or the eviction order.
func (c *Cache) Get(key string) (*media.Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, ok := c.entries[key]
	return content, ok
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*media.Content)
	c.order = nil
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the configured bound.
func (c *Cache) Capacity() int {
	return c.capacity
}
