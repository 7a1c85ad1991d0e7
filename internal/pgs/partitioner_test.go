package pgs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

func testPGSConfig() *config.PGSConfig {
	return &config.PGSConfig{
		MaxConcurrentSweeps: 2,
		MinNodes:            0,
		TargetPartitionMin:  1,
		TargetPartitionMax:  1000,
		MinCommunitySize:    1,
		MaxSweepPartitions:  10,
		MinSweepPartitions:  0,
		RelevanceThreshold:  0.25,
		MaxIterations:       20,
		ModularityGainEps:   1e-10,
	}
}

// twoClusterState builds two tightly-connected triangles joined by a single
// weak bridge edge, the textbook case Louvain should split into two
// communities.
func twoClusterState() *types.BrainState {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "a1", Concept: "alpha cluster node one", Weight: 1, Embedding: []float32{1, 0}},
			{ID: "a2", Concept: "alpha cluster node two", Weight: 1, Embedding: []float32{1, 0}},
			{ID: "a3", Concept: "alpha cluster node three", Weight: 1, Embedding: []float32{1, 0}},
			{ID: "b1", Concept: "beta cluster node one", Weight: 1, Embedding: []float32{0, 1}},
			{ID: "b2", Concept: "beta cluster node two", Weight: 1, Embedding: []float32{0, 1}},
			{ID: "b3", Concept: "beta cluster node three", Weight: 1, Embedding: []float32{0, 1}},
		},
		Edges: []*types.Edge{
			{Source: "a1", Target: "a2", Weight: 10},
			{Source: "a2", Target: "a3", Weight: 10},
			{Source: "a1", Target: "a3", Weight: 10},
			{Source: "b1", Target: "b2", Weight: 10},
			{Source: "b2", Target: "b3", Weight: 10},
			{Source: "b1", Target: "b3", Weight: 10},
			{Source: "a1", Target: "b1", Weight: 1},
		},
	}
	state.BuildIndex()
	return state
}

func TestPartitionSplitsIntoTwoCommunities(t *testing.T) {
	p := New(testPGSConfig())
	partitions := p.Partition(twoClusterState())

	require.Len(t, partitions, 2)
	for _, part := range partitions {
		assert.Equal(t, 3, part.NodeCount)
	}
}

func TestPartitionEnrichesCentroidAndKeywords(t *testing.T) {
	p := New(testPGSConfig())
	partitions := p.Partition(twoClusterState())

	for _, part := range partitions {
		assert.Len(t, part.CentroidEmbedding, 2)
		assert.NotEmpty(t, part.Keywords)
		assert.NotEmpty(t, part.Summary)
	}
}

func TestPartitionAdjacentPartitionsReflectBridgeEdge(t *testing.T) {
	p := New(testPGSConfig())
	partitions := p.Partition(twoClusterState())

	for _, part := range partitions {
		require.Len(t, part.AdjacentPartitions, 1)
		assert.Equal(t, 1, part.AdjacentPartitions[0].SharedEdges)
	}
}

func TestPartitionEmptyStateReturnsNil(t *testing.T) {
	p := New(testPGSConfig())
	state := &types.BrainState{}
	state.BuildIndex()
	assert.Nil(t, p.Partition(state))
}

func TestMergeSmallAbsorbsUndersizedCommunity(t *testing.T) {
	state := twoClusterState()
	g := buildGraph(state)
	cfg := testPGSConfig()
	cfg.MinCommunitySize = 4

	groups := [][]int{{0, 1, 2}, {3, 4, 5}}
	merged := mergeSmall(g, groups, cfg)

	require.Len(t, merged, 1)
	assert.Len(t, merged[0], 6)
}

func TestSplitOversizeBisectsLargeCommunity(t *testing.T) {
	state := twoClusterState()
	g := buildGraph(state)
	cfg := testPGSConfig()
	cfg.TargetPartitionMax = 3

	groups := [][]int{{0, 1, 2, 3, 4, 5}}
	split := splitOversize(g, groups, cfg)

	require.Len(t, split, 2)
	for _, grp := range split {
		assert.LessOrEqual(t, len(grp), 3)
	}
}
