// Package cache provides a cost-bounded LRU cache.
//
// Every entry is charged a cost (for buffers, their size in bytes). When the
// total cost exceeds the budget, least recently used entries are evicted
// until it fits again. A value whose cost alone exceeds the budget is never
// stored.
//
//	c := cache.New[string, []byte](64<<20, cache.ByteLen)
//	c.Set("mesh.bin", data)
//	data, ok := c.Get("mesh.bin")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache

import (
	"sync"
	"sync/atomic"
)

// CostFunc returns the cost charged for a value. It must be non-negative
// and stable for a given value.
type CostFunc[V any] func(V) int64

// ByteLen charges a byte slice its length.
func ByteLen(b []byte) int64 { return int64(len(b)) }

// Cache is a thread-safe LRU cache bounded by total cost.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
	budget  int64
	used    int64
	cost    CostFunc[V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache holding at most budget total cost.
// A budget of 0 or less disables caching: Set stores nothing.
func New[K comparable, V any](budget int64, cost CostFunc[V]) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		budget:  budget,
		cost:    cost,
	}
}

// Get returns the value stored for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.node)
	value := e.value
	c.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Set stores value under key, replacing any previous value, and evicts the
// least recently used entries until the budget holds. It reports whether
// the value was stored.
//
// The value is stored as-is; callers must not modify it afterwards.
func (c *Cache[K, V]) Set(key K, value V) bool {
	cost := c.cost(value)
	if c.budget <= 0 || cost > c.budget {
		c.Delete(key)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	for c.used+cost > c.budget {
		oldest := c.lru.Oldest()
		if oldest == nil {
			break
		}
		c.remove(c.entries[oldest.key])
		c.evictions.Add(1)
	}

	node := c.lru.PushFront(key, cost)
	c.entries[key] = &entry[K, V]{value: value, node: node}
	c.used += cost
	return true
}

// Delete removes key. It reports whether an entry was removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// remove drops e from the map and list. Caller must hold c.mu.
func (c *Cache[K, V]) remove(e *entry[K, V]) {
	c.lru.Remove(e.node)
	delete(c.entries, e.node.key)
	c.used -= e.node.cost
}

// Clear removes all entries. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.lru = lruList[K]{}
	c.used = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Used      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
	// HitRate is Hits / (Hits + Misses), or 0 before any lookup.
	HitRate float64
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	n, used := len(c.entries), c.used
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       n,
		Used:      used,
		Budget:    c.budget,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}
