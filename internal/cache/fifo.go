package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the number of entries a query cache holds by default.
const DefaultCapacity = 1024

// FIFO is a fixed-capacity cache with strict first-in-first-out eviction.
// Reads never change eviction order; overwriting a key moves it to the back
// of the queue as if it were newly inserted.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*list.Element
	order    *list.List // front = oldest insertion
	capacity int

	stats Stats
}

type fifoEntry[K comparable, V any] struct {
	key   K
	value V
}

// Stats tracks cache performance statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Sets      int64
}

// NewFIFO creates a FIFO cache. A non-positive capacity selects DefaultCapacity.
func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FIFO[K, V]{
		entries:  make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get returns the cached value for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.stats.Hits++
		return e.Value.(*fifoEntry[K, V]).value, true
	}
	c.stats.Misses++
	var zero V
	return zero, false
}

// Set stores value under key, evicting the oldest entry when full.
// It reports whether an entry was evicted.
func (c *FIFO[K, V]) Set(key K, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Sets++
	if e, ok := c.entries[key]; ok {
		c.order.Remove(e)
		delete(c.entries, key)
	} else if len(c.entries) >= c.capacity {
		c.evictOldest()
		evicted = true
	}

	c.entries[key] = c.order.PushBack(&fifoEntry[K, V]{key: key, value: value})
	return evicted
}

// evictOldest removes the entry with the smallest insertion index.
// Callers must hold c.mu.
func (c *FIFO[K, V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	entry := front.Value.(*fifoEntry[K, V])
	c.order.Remove(front)
	delete(c.entries, entry.key)
	c.stats.Evictions++
}

// Len returns the number of cached entries
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries
func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns cached keys, oldest insertion first.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*fifoEntry[K, V]).key)
	}
	return keys
}

// Stats returns a snapshot of the cache statistics
func (c *FIFO[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
