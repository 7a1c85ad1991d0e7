package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

func testTrackerConfig() *config.SessionConfig {
	return &config.SessionConfig{Capacity: 2, TTL: time.Hour}
}

func TestGetOrCreateCreatesThenReuses(t *testing.T) {
	tr := New(testTrackerConfig())
	now := time.Unix(1000, 0)

	s1 := tr.GetOrCreate("sess-a", now)
	s2 := tr.GetOrCreate("sess-a", now.Add(time.Minute))

	assert.Same(t, s1, s2)
}

func TestGetOrCreateEvictsExpiredSession(t *testing.T) {
	tr := New(testTrackerConfig())
	now := time.Unix(1000, 0)

	first := tr.GetOrCreate("sess-a", now)
	first.Queries = append(first.Queries, types.QueryTurn{Query: "q"})

	later := tr.GetOrCreate("sess-a", now.Add(2*time.Hour))
	assert.NotSame(t, first, later)
	assert.Empty(t, later.Queries)
}

func TestGetOrCreateEvictsOverCapacity(t *testing.T) {
	tr := New(testTrackerConfig())
	now := time.Unix(1000, 0)

	tr.GetOrCreate("sess-a", now)
	tr.GetOrCreate("sess-b", now)
	tr.GetOrCreate("sess-c", now)

	tr.mu.Lock()
	_, stillPresent := tr.sessions["sess-a"]
	tr.mu.Unlock()
	assert.False(t, stillPresent, "oldest session should be evicted once capacity is exceeded")
}

func TestRecordTurnAppendsAndMergesContext(t *testing.T) {
	tr := New(testTrackerConfig())
	now := time.Unix(1000, 0)

	tr.GetOrCreate("sess-a", now)
	tr.RecordTurn("sess-a", types.QueryTurn{
		Query:  `What happened in cycle 42 with "graph partitioning"?`,
		Answer: "Partitioned Graph Synthesis handled it.",
	}, now)

	s := tr.GetOrCreate("sess-a", now)
	require.Len(t, s.Queries, 1)
	assert.Contains(t, s.Context.Cycles, int64(42))
	assert.Contains(t, s.Context.Concepts, "graph partitioning")
	assert.Contains(t, s.Context.Entities, "Partitioned Graph Synthesis")
}

func TestExtractCyclesQuotedAndEntities(t *testing.T) {
	ctx := Extract(`In cycle 7 we found "emergent behavior" inside the Louvain Algorithm.`)

	assert.Equal(t, []int64{7}, ctx.Cycles)
	assert.Contains(t, ctx.Concepts, "emergent behavior")
	assert.Contains(t, ctx.Entities, "Louvain Algorithm")
}

func TestExtractFrequentWordsRequiresRepetition(t *testing.T) {
	ctx := Extract("partition partition singleton")
	assert.Contains(t, ctx.Tags, "partition")
	assert.NotContains(t, ctx.Tags, "singleton")
}

func TestMergeUnionsAndCaps(t *testing.T) {
	a := types.FollowUpContext{Concepts: []string{"one", "two"}, Cycles: []int64{1, 2}}
	b := types.FollowUpContext{Concepts: []string{"two", "three"}, Cycles: []int64{2, 3}}

	merged := Merge(a, b)
	assert.ElementsMatch(t, []string{"one", "two", "three"}, merged.Concepts)
	assert.ElementsMatch(t, []int64{1, 2, 3}, merged.Cycles)

	want := types.FollowUpContext{
		Concepts: []string{"one", "two", "three"},
		Cycles:   []int64{1, 2, 3},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCapsAtCreationLimits(t *testing.T) {
	text := ""
	for i := 0; i < 30; i++ {
		text += `"term` + string(rune('a'+i%26)) + `" `
	}
	ctx := Extract(text)
	assert.LessOrEqual(t, len(ctx.Concepts), 20)
}
