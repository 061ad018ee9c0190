// Package cache implements a generic, mutex-protected TTL cache with a
// background expiry sweep.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.After(now)
}

// Cache maps K -> V, each entry carrying its own expires_at. Mutation is
// serialized by a single mutex whose critical sections are one map
// operation each; no sharding, per the spec's concurrency model.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]entry[V]
	cloneFn func(V) V
	stop    chan struct{}
	once    sync.Once
}

// New returns a Cache with a background sweep goroutine that calls Clean
// every cleanPeriod. cloneFn produces the defensive copy GetClone returns.
func New[K comparable, V any](cleanPeriod time.Duration, cloneFn func(V) V) *Cache[K, V] {
	c := &Cache[K, V]{
		data:    make(map[K]entry[V]),
		cloneFn: cloneFn,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop(cleanPeriod)
	return c
}

func (c *Cache[K, V]) sweepLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Clean()
		case <-c.stop:
			return
		}
	}
}

// Stop terminates the background sweep goroutine. Safe to call more than
// once.
func (c *Cache[K, V]) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// GetClone returns a clone of the value at k if present and not expired.
// An expired entry is removed as a side effect.
func (c *Cache[K, V]) GetClone(k K) (V, bool) {
	v, _, ok := c.GetCloneWithExpiry(k)
	return v, ok
}

// GetCloneWithExpiry is GetClone plus the entry's expires_at, used by
// callers that need to recompute a decaying TTL on read.
func (c *Cache[K, V]) GetCloneWithExpiry(k K) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[k]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	if e.expired(time.Now()) {
		delete(c.data, k)
		var zero V
		return zero, time.Time{}, false
	}
	return c.cloneFn(e.value), e.expiresAt, true
}

// Set inserts v with the given ttl, replacing any existing entry, and
// returns the previous non-expired value if there was one.
func (c *Cache[K, V]) Set(k K, ttl time.Duration, v V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, hadPrev := c.data[k]
	prevValid := hadPrev && !prev.expired(time.Now())
	c.data[k] = entry[V]{expiresAt: time.Now().Add(ttl), value: v}
	if prevValid {
		return prev.value, true
	}
	var zero V
	return zero, false
}

// Remove deletes k, returning its non-expired value if there was one.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[k]
	delete(c.data, k)
	if !ok || e.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// OnFound, under a single lock acquisition, calls f with the entry's
// expires_at and a pointer to its value if k is present and not expired,
// returning true. An expired entry is removed and false is returned.
func (c *Cache[K, V]) OnFound(k K, f func(expiresAt time.Time, v *V)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[k]
	if !ok {
		return false
	}
	if e.expired(time.Now()) {
		delete(c.data, k)
		return false
	}
	f(e.expiresAt, &e.value)
	c.data[k] = e
	return true
}

// Clean retains only non-expired entries.
func (c *Cache[K, V]) Clean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.data {
		if e.expired(now) {
			delete(c.data, k)
		}
	}
}

// Len reports the number of entries currently stored, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
