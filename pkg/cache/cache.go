// Package cache provides a thread-safe LRU cache for compiled gospel expressions.
//
// The cache is used by the gospel evaluator when the WithCaching option is enabled.
// It avoids re-parsing the same expression string on every call, which is
// especially valuable when the same expression is applied to many different roots.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("items.?[price > 100]", compile)
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/sandrolain/gospel/pkg/types"
)

// DefaultCapacity is used when New is called with a non-positive capacity.
const DefaultCapacity = 256

// Cache is an LRU (Least Recently Used) cache for compiled expressions keyed
// by source text. Once the capacity is reached, the least recently accessed
// entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	capacity  int
	lru       *lru.Cache
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, DefaultCapacity is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, err := lru.New(capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Cache{capacity: capacity, lru: l}
}

// Get retrieves a compiled expression from the cache and marks it as
// most recently used.
func (c *Cache) Get(key string) (*types.Expression, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.(*types.Expression), true
}

// Set inserts or replaces an expression in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, expr *types.Expression) {
	if c.lru.Add(key, expr) {
		c.evictions.Add(1)
	}
}

// GetOrCompile retrieves the expression for key from cache, or calls compile()
// to create it, caches the result, and returns it.
// Errors are not cached.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, expr)
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Clear removes all entries from the cache. Counters are kept.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Stats returns the current hit, miss and eviction counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
