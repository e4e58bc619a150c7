// Package ttlcache is a small thread-safe cache with per-entry expiry
// and an injectable clock, backing the MX, owner-verification and
// training-statistics read-through caches. Stale entries are replaced
// transparently; concurrent re-population is tolerated (last write wins).
package ttlcache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache maps string keys to values of type V with a fixed TTL.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   clockwork.Clock
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// New creates a cache with the given TTL. A nil clock means wall time.
func New[V any](ttl time.Duration, clock clockwork.Clock) *Cache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached value for key. ok is false when the key is
// absent or its entry has expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.clock.Now().After(e.expires) {
		var zero V
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expires: c.clock.Now().Add(c.ttl)}
}

// Len returns the number of entries, expired ones included (diagnostics).
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
