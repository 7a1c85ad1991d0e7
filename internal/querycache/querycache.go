// Package querycache is the bounded result cache keyed by
// (stateHash, query, model, mode), with FIFO eviction on overflow
// (spec.md §4.5).
package querycache

import (
	"container/list"
	"sync"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Key identifies one cached query result.
type Key struct {
	StateHash string
	Query     string
	Model     string
	Mode      types.Mode
}

type entry struct {
	key    Key
	result types.QueryResult
}

// Cache is a process-local, insertion-ordered FIFO cache of QueryResults.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[Key]*list.Element
}

// New creates a Cache bounded by cfg.Capacity.
func New(cfg *config.QueryCacheConfig) *Cache {
	return &Cache{
		capacity: cfg.Capacity,
		order:    list.New(),
		index:    make(map[Key]*list.Element),
	}
}

// Get returns a clone of the cached result with Performance.Cached set,
// per spec.md §4.5 "Hit returns a clone with performance.cached=true".
func (c *Cache) Get(key Key) (types.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return types.QueryResult{}, false
	}

	result := el.Value.(*entry).result
	result.Performance.Cached = true
	return result, true
}

// Put inserts result under key, evicting the oldest entry if over capacity.
// Re-inserting an existing key does not move it within FIFO order.
func (c *Cache) Put(key Key, result types.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*entry).result = result
		return
	}

	el := c.order.PushBack(&entry{key: key, result: result})
	c.index[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*entry).key)
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
