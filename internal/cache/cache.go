package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	writtenAt time.Time
}

// Cache is a bounded, time-expiring cache. Eviction is strictly FIFO on
// insertion order: reading an entry does not promote it, and overwriting an
// existing key refreshes its timestamp but keeps its queue position.
// Entries past their ttl are evicted lazily, on the read that observes them.
// A ttl of zero disables expiry (for caches refreshed wholesale).
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	order    []string
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache holding at most capacity entries for at most ttl.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:  make(map[string]entry[V]),
		order:    make([]string, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the cache's clock. Tests use this to cross TTL
// boundaries without sleeping.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Remember stores value at key with the current timestamp, then evicts
// oldest-inserted entries until the cache fits its capacity.
func (c *Cache[V]) Remember(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[V]{value: value, writtenAt: c.now()}

	for c.capacity > 0 && len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Read returns the live value at key. An entry older than ttl is treated as
// absent and evicted on the spot.
func (c *Cache[V]) Read(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.ttl > 0 && c.now().Sub(ent.writtenAt) > c.ttl {
		c.removeLocked(key)
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Remove evicts key immediately.
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear drops every entry. Used by wholesale-refresh caches before
// repopulating from a fresh fetch.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.order = c.order[:0]
}

// Len reports the number of live-or-expired entries currently held.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
