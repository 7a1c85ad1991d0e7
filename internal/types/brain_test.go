package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTagSetHasAndIntersects(t *testing.T) {
	a := NewTagSet("discovery", "research")
	b := NewTagSet("summary", "research")

	assert.True(t, a.Has("discovery"))
	assert.False(t, a.Has("summary"))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(NewTagSet("meta")))
}

func TestTagSetSliceIsSorted(t *testing.T) {
	ts := NewTagSet("zeta", "alpha", "mu")
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, ts.Slice())
}

func TestTagSetJaccard(t *testing.T) {
	a := NewTagSet("x", "y", "z")
	b := NewTagSet("y", "z", "w")
	// intersection {y,z} = 2, union {x,y,z,w} = 4
	assert.InDelta(t, 0.5, a.Jaccard(b), 1e-9)
	assert.Equal(t, 0.0, NewTagSet().Jaccard(NewTagSet()))
}

func TestBrainStateBuildIndex(t *testing.T) {
	state := &BrainState{Nodes: []*Node{{ID: "n1"}, {ID: "n2"}}}
	state.BuildIndex()
	assert.Len(t, state.NodeIndex, 2)
	assert.Same(t, state.Nodes[1], state.NodeIndex["n2"])
}

func TestBrainStateIsMerged(t *testing.T) {
	solo := &BrainState{Nodes: []*Node{{ID: "n1", SourceRuns: []string{"run-a"}}}}
	assert.False(t, solo.IsMerged())

	mergedByNode := &BrainState{Nodes: []*Node{{ID: "n1", SourceRuns: []string{"run-a", "run-b"}}}}
	assert.True(t, mergedByNode.IsMerged())

	mergedByRunMeta := &BrainState{RunMetadata: &RunMetadata{Runs: []string{"run-a", "run-b"}}}
	assert.True(t, mergedByRunMeta.IsMerged())
}

func TestBrainStateHashSoloVsCluster(t *testing.T) {
	solo := &BrainState{CycleCount: 42, Nodes: []*Node{{ID: "n1"}, {ID: "n2"}}}
	assert.Equal(t, "solo:42:2", solo.StateHash())

	ts := time.Unix(1700000000, 0)
	cluster := &BrainState{
		IsCluster:   true,
		Timestamp:   ts,
		Nodes:       []*Node{{ID: "n1"}},
		ActiveGoals: 3,
	}
	assert.Equal(t, "cluster:1700000000:1:3", cluster.StateHash())
}
