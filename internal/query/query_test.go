package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/actiondetector"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/contextbuilder"
	"github.com/JaimeStill/brainquery/internal/llm"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/querycache"
	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/session"
	"github.com/JaimeStill/brainquery/internal/types"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.response}, nil
}

func testLog() *logger.Logger {
	return logger.New(&config.LoggingConfig{Level: "error", Format: "text"})
}

func testState() *types.BrainState {
	state := &types.BrainState{
		Nodes: []*types.Node{
			{ID: "n1", Concept: "partitioned graph synthesis overview", Weight: 1, Activation: 1},
			{ID: "n2", Concept: "louvain community detection", Weight: 1, Activation: 1},
		},
	}
	state.BuildIndex()
	return state
}

func newTestEngine(t *testing.T, llmClient llm.LLM) *Engine {
	t.Helper()
	deps := Dependencies{
		LLM:    llmClient,
		Ranker: ranker.New(&config.RankerConfig{MinConnectedExpansion: 1, MaxConnectedExpansion: 5, DeepModeMaxExpansion: 10}),
		Builder: contextbuilder.New(&config.ContextBuilderConfig{
			CeilingFraction:     0.65,
			PriorAnswerMaxChars: 5000,
			WarnTotalCharsOver:  1_000_000,
		}, testLog()),
		QueryCache: querycache.New(&config.QueryCacheConfig{Capacity: 10}),
		Sessions:   session.New(&config.SessionConfig{Capacity: 10, TTL: time.Hour}),
		Detector:   actiondetector.NewChain(),
		ActionCfg:  &config.ActionDetectorConfig{OutputsDir: t.TempDir(), MinArtifactChars: 10},
	}
	return New(deps, testLog())
}

func TestQueryMissingStateReturnsFatalError(t *testing.T) {
	e := newTestEngine(t, &fakeLLM{response: "answer"})
	_, err := e.Query(context.Background(), Input{Options: types.QueryOptions{Mode: types.ModeFull}})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStateUnavailable)
}

func TestQueryUnsupportedModeReturnsFatalError(t *testing.T) {
	e := newTestEngine(t, &fakeLLM{response: "answer"})
	_, err := e.Query(context.Background(), Input{
		State:   testState(),
		Options: types.QueryOptions{Mode: types.Mode("unknown")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInputInvalid)
}

func TestQueryReturnsLLMAnswer(t *testing.T) {
	e := newTestEngine(t, &fakeLLM{response: "the synthesized answer"})
	result, err := e.Query(context.Background(), Input{
		State:   testState(),
		Query:   "how does louvain detection work?",
		Now:     time.Unix(1000, 0),
		Options: types.QueryOptions{Mode: types.ModeFull, Model: "claude-sonnet-4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "the synthesized answer", result.Answer)
	assert.False(t, result.HadError)
	assert.False(t, result.Performance.Cached)
}

func TestQueryCachesSecondCallWithSameKey(t *testing.T) {
	fake := &fakeLLM{response: "cached answer"}
	e := newTestEngine(t, fake)
	state := testState()
	in := Input{
		State:   state,
		Query:   "what is partitioned graph synthesis?",
		Now:     time.Unix(1000, 0),
		Options: types.QueryOptions{Mode: types.ModeFull, Model: "claude-sonnet-4"},
	}

	_, err := e.Query(context.Background(), in)
	require.NoError(t, err)
	_, err = e.Query(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
}

func TestQueryExecutiveModeSkipsBrainAccess(t *testing.T) {
	fake := &fakeLLM{response: "executive summary"}
	e := newTestEngine(t, fake)
	result, err := e.Query(context.Background(), Input{
		State:   testState(),
		Query:   "give me the executive summary",
		Now:     time.Unix(1000, 0),
		Options: types.QueryOptions{Mode: types.ModeExecutive, Model: "claude-sonnet-4"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Performance.NodesUsed)
	assert.Nil(t, result.Metadata)
	assert.True(t, result.HadError, "no BaseAnswer supplied, compression has nothing to compress")
}

func TestQueryExecutiveCompressesBaseAnswerWithoutRanking(t *testing.T) {
	fake := &fakeLLM{response: "A) Decision: ship it [Mem 4]\nB) Rationale: cycle 9 evidence [Cycle 9]\nC) Risks: none\nD) Dependencies: none\nE) Next Steps: none"}
	e := newTestEngine(t, fake)
	result, err := e.Query(context.Background(), Input{
		State: testState(),
		Thoughts: []*types.Thought{
			{InstanceID: "a", Cycle: 1, Content: "should never be ranked in executive mode"},
		},
		Query: "summarize the prior answer",
		Now:   time.Unix(1000, 0),
		Options: types.QueryOptions{
			Mode:       types.ModeExecutive,
			Model:      "claude-sonnet-4",
			BaseAnswer: strings.Repeat("the prior answer referencing [Mem 1] and [Cycle 2] ", 50),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 0, result.Performance.NodesUsed)
	assert.False(t, result.HadError)
	assert.NotContains(t, result.Answer, "[Mem 4]")
	assert.NotContains(t, result.Answer, "[Cycle 9]")
	assert.LessOrEqual(t, len(result.Answer), 2400)
}

func TestQueryLLMFailureMarksHadError(t *testing.T) {
	e := newTestEngine(t, &fakeLLM{err: assert.AnError})
	result, err := e.Query(context.Background(), Input{
		State:   testState(),
		Query:   "anything",
		Now:     time.Unix(1000, 0),
		Options: types.QueryOptions{Mode: types.ModeFull, Model: "claude-sonnet-4"},
	})
	require.NoError(t, err)
	assert.True(t, result.HadError)
}

func TestQueryRecordsSessionTurn(t *testing.T) {
	e := newTestEngine(t, &fakeLLM{response: "session answer"})
	_, err := e.Query(context.Background(), Input{
		State: testState(),
		Query: "track this turn",
		Now:   time.Unix(1000, 0),
		Options: types.QueryOptions{
			Mode: types.ModeFull, Model: "claude-sonnet-4", SessionID: "sess-1",
		},
	})
	require.NoError(t, err)

	s := e.deps.Sessions.GetOrCreate("sess-1", time.Unix(1000, 0))
	require.Len(t, s.Queries, 1)
	assert.Equal(t, "track this turn", s.Queries[0].Query)
}
