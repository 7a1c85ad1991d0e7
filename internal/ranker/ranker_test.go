package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

func testConfig() *config.RankerConfig {
	return &config.RankerConfig{
		MinConnectedExpansion: 2,
		MaxConnectedExpansion: 10,
		DeepModeMaxExpansion:  20,
	}
}

func TestRankFiltersMetaNodes(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "n1", Concept: "goroutine scheduling", Weight: 1, Activation: 1},
			{ID: "n2", Concept: "dream about goroutines", Weight: 1, Activation: 1, Tags: types.NewTagSet("dream")},
		},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "goroutine", nil, Options{})

	require.Len(t, results, 1)
	assert.Equal(t, "n1", results[0].Node.ID)
}

func TestRankKeywordScoringOrdersExactMatchFirst(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "exact", Concept: "channel deadlock detection", Weight: 1, Activation: 1},
			{ID: "partial", Concept: "deadlock in mutex code", Weight: 1, Activation: 1},
			{ID: "unrelated", Concept: "completely different topic", Weight: 1, Activation: 1},
		},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "channel deadlock detection", nil, Options{})

	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Node.ID)
	assert.Equal(t, "unrelated", results[2].Node.ID)
}

func TestRankTagBoostAndDeboost(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "boosted", Concept: "a finding about caches", Weight: 1, Activation: 1, Tags: types.NewTagSet("breakthrough")},
			{ID: "plain", Concept: "a finding about caches", Weight: 1, Activation: 1},
			{ID: "deboosted", Concept: "a finding about caches", Weight: 1, Activation: 1, Tags: types.NewTagSet("meta")},
		},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "finding caches", nil, Options{})

	byID := make(map[string]float64, len(results))
	for _, res := range results {
		byID[res.Node.ID] = res.Score
	}

	assert.Greater(t, byID["boosted"], byID["plain"])
	assert.Greater(t, byID["plain"], byID["deboosted"])
}

func TestRankFilterByTags(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "a", Concept: "topic one", Weight: 1, Activation: 1, Tags: types.NewTagSet("wanted")},
			{ID: "b", Concept: "topic two", Weight: 1, Activation: 1, Tags: types.NewTagSet("other")},
		},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "topic", nil, Options{FilterTags: []string{"wanted"}})

	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Node.ID)
}

func TestRankLimitTruncates(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "a", Concept: "topic alpha", Weight: 1, Activation: 1},
			{ID: "b", Concept: "topic beta", Weight: 1, Activation: 1},
			{ID: "c", Concept: "topic gamma", Weight: 1, Activation: 1},
		},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "topic", nil, Options{Limit: 2})
	assert.Len(t, results, 2)
}

func TestRankConnectedExpansionAddsNeighbors(t *testing.T) {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "hit", Concept: "deadlock analysis report", Weight: 1, Activation: 1, Tags: types.NewTagSet("wanted")},
			{ID: "neighbor", Concept: "unrelated neighbor concept", Weight: 1, Activation: 1},
		},
		Edges: []*types.Edge{{Source: "hit", Target: "neighbor", Weight: 1}},
	}
	state.BuildIndex()

	r := New(testConfig())
	results := r.Rank(state, "deadlock analysis report", nil, Options{IncludeConnected: true, FilterTags: []string{"wanted"}})

	var sawConnected bool
	for _, res := range results {
		if res.Node.ID == "neighbor" {
			sawConnected = true
			assert.True(t, res.Connected)
		}
	}
	assert.True(t, sawConnected, "expected connected neighbor to be included")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine(nil, nil))
}
