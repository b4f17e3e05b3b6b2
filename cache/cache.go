// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Typed, thread-safe cache with a background sweep that stops on Close

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache holds values of one type for a fixed TTL. A zero or negative TTL
// disables storage: Set is a no-op and Get always misses.
type Cache[V any] struct {
	mu    sync.Mutex
	store map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// New creates a cache and starts its sweep goroutine when ttl is positive.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		store: make(map[string]entry[V]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if ttl > 0 {
		go c.startCleanup(time.Minute)
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache[V]) Enabled() bool {
	return c != nil && c.ttl > 0
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.store, key)
		slog.Debug("Cache expired", "key", key)
		return zero, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

func (c *Cache[V]) Set(key string, value V) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	c.store[key] = entry[V]{data: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	slog.Debug("Cache set", "key", key, "ttl", c.ttl)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Close stops the sweep goroutine.
func (c *Cache[V]) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
}

func (c *Cache[V]) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *Cache[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}
