package querycache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

func TestCacheGetMissReturnsFalse(t *testing.T) {
	c := New(&config.QueryCacheConfig{Capacity: 2})
	_, ok := c.Get(Key{Query: "absent"})
	assert.False(t, ok)
}

func TestCachePutThenGetMarksCached(t *testing.T) {
	c := New(&config.QueryCacheConfig{Capacity: 2})
	key := Key{StateHash: "solo:1:1", Query: "q", Model: "m", Mode: types.ModeFull}
	c.Put(key, types.QueryResult{Answer: "hello"})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Answer)
	assert.True(t, got.Performance.Cached)
}

func TestCacheFIFOEvictsOldestOverCapacity(t *testing.T) {
	c := New(&config.QueryCacheConfig{Capacity: 2})

	k1 := Key{Query: "q1"}
	k2 := Key{Query: "q2"}
	k3 := Key{Query: "q3"}

	c.Put(k1, types.QueryResult{Answer: "1"})
	c.Put(k2, types.QueryResult{Answer: "2"})
	c.Put(k3, types.QueryResult{Answer: "3"})

	_, ok := c.Get(k1)
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get(k2)
	assert.True(t, ok)

	_, ok = c.Get(k3)
	assert.True(t, ok)

	assert.Equal(t, 2, c.Len())
}

func TestCachePutOnExistingKeyDoesNotReorderFIFO(t *testing.T) {
	c := New(&config.QueryCacheConfig{Capacity: 2})

	k1 := Key{Query: "q1"}
	k2 := Key{Query: "q2"}
	k3 := Key{Query: "q3"}

	c.Put(k1, types.QueryResult{Answer: "1"})
	c.Put(k2, types.QueryResult{Answer: "2"})
	c.Put(k1, types.QueryResult{Answer: "1-updated"})
	c.Put(k3, types.QueryResult{Answer: "3"})

	_, ok := c.Get(k1)
	assert.False(t, ok, "re-inserting an existing key should not move it within FIFO order")
}
