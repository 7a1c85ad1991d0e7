package contextbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/types"
)

func testBuilder() *Builder {
	cfg := &config.ContextBuilderConfig{
		CeilingFraction:     0.65,
		PriorAnswerMaxChars: 5000,
		WarnTotalCharsOver:  1_000_000,
	}
	logCfg := &config.LoggingConfig{Level: "error", Format: "text"}
	return New(cfg, logger.New(logCfg))
}

func TestBuildIncludesDirectMatches(t *testing.T) {
	state := &types.BrainState{Nodes: []*types.Node{{ID: "n1"}}}
	state.BuildIndex()

	in := Input{
		State:      state,
		DirectHits: []ranker.Result{{Node: &types.Node{ID: "n1", Concept: "memory allocation patterns"}}},
		Model:      "claude-sonnet-4",
		Mode:       types.ModeFull,
	}

	result := testBuilder().Build(in)
	assert.Contains(t, result.Context, "## Direct Matches")
	assert.Contains(t, result.Context, "memory allocation patterns")
	assert.Equal(t, 1, result.NodesUsed)
}

func TestBuildSeparatesConnectedConcepts(t *testing.T) {
	state := &types.BrainState{Nodes: []*types.Node{{ID: "n1"}, {ID: "n2"}}}
	state.BuildIndex()

	in := Input{
		State: state,
		DirectHits: []ranker.Result{
			{Node: &types.Node{ID: "n1", Concept: "direct hit"}},
			{Node: &types.Node{ID: "n2", Concept: "connected hit"}, Connected: true},
		},
		Model: "claude-sonnet-4",
		Mode:  types.ModeFull,
	}

	result := testBuilder().Build(in)
	assert.Contains(t, result.Context, "## Connected Concepts")
	directIdx := strings.Index(result.Context, "direct hit")
	connectedIdx := strings.Index(result.Context, "connected hit")
	require.True(t, directIdx >= 0 && connectedIdx >= 0)
	assert.Less(t, directIdx, connectedIdx)
}

func TestBuildIncludesThoughtsAndPriorContext(t *testing.T) {
	state := &types.BrainState{}
	state.BuildIndex()

	in := Input{
		State: state,
		Thoughts: []ranker.ThoughtResult{
			{Thought: &types.Thought{Cycle: 3, Role: "assistant", Content: "reasoned about the problem"}},
		},
		PriorContext: &types.PriorContext{PrevQuery: "what about X?", PrevAnswer: "X is Y."},
		Model:        "claude-sonnet-4",
		Mode:         types.ModeFull,
	}

	result := testBuilder().Build(in)
	assert.Contains(t, result.Context, "## Prior Conversation")
	assert.Contains(t, result.Context, "## Thoughts")
	assert.Contains(t, result.Context, "reasoned about the problem")
}

func TestBuildGroundedModeOmitsCoordinatorReview(t *testing.T) {
	state := &types.BrainState{}
	state.BuildIndex()

	in := Input{
		State:         state,
		CoordinatorMD: "# Review\nEverything looks fine.",
		Model:         "claude-sonnet-4",
		Mode:          types.ModeGrounded,
	}

	result := testBuilder().Build(in)
	assert.NotContains(t, result.Context, "## Coordinator Review")
}

func TestAdaptiveNodeLimitAppliesMergedMultiplier(t *testing.T) {
	profile := types.ModeProfiles[types.ModeFull]
	base := adaptiveNodeLimit(profile, 100, 4000, false)
	merged := adaptiveNodeLimit(profile, 100, 4000, true)
	assert.Greater(t, merged, base)
}

func TestTierCharsDescendsByRank(t *testing.T) {
	assert.Equal(t, 2000, tierChars(standardTiers, 1))
	assert.Equal(t, 1000, tierChars(standardTiers, 50))
	assert.Equal(t, 700, tierChars(standardTiers, 150))
	assert.Equal(t, 500, tierChars(standardTiers, 10_000))
}
