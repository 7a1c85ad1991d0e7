package pgs

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/internal/llm"
	"github.com/JaimeStill/brainquery/internal/types"
)

// stubLLM answers every Generate call with a fixed, well-formed sweep or
// synthesis response so the executor pipeline can run end to end without a
// live model, mirroring the teacher's harness-driven pipeline tests.
type stubLLM struct {
	calls int
}

func (s *stubLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.calls++
	return llm.Response{Content: fmt.Sprintf(
		"Domain State: stable\nFindings: call %d observed patterns\nOutbound Flags: none\nAbsences: none",
		s.calls,
	)}, nil
}

func newTestExecutor(t *testing.T, llmClient llm.LLM) *Executor {
	t.Helper()
	cfg := testPGSConfig()
	cfg.PartitionsFile = "partitions.json"
	cfg.SessionsDir = "pgs-sessions"
	cfg.SweepMaxTokens = 1000
	cfg.SynthesisMaxTokens = 2000
	cfg.SweepCharBudget = 10_000

	partitioner := New(cfg)
	cache := NewCache(cfg, testLogger())
	sessions := NewSessionStore(cfg, testLogger())
	return NewExecutor(cfg, partitioner, cache, sessions, llmClient, testLogger())
}

func TestExecutorRunEndToEnd(t *testing.T) {
	state := twoClusterState()
	exec := newTestExecutor(t, &stubLLM{})

	var events []Event
	sink := func(e Event) { events = append(events, e) }

	outcome, err := exec.Run(context.Background(), state, RunOptions{
		Query:     "what do we know about alpha and beta?",
		Model:     "claude-sonnet-4",
		SessionID: "sess-int",
		Mode:      types.SessionModeFull,
		NowUnix:   1000,
		BrainRoot: t.TempDir(),
		BrainHash: state.StateHash(),
	}, sink)

	require.NoError(t, err)
	assert.Equal(t, 2, outcome.PartitionsTotal)
	assert.Equal(t, 2, outcome.PartitionsUsed)
	assert.NotEmpty(t, outcome.Answer)
	assert.False(t, outcome.FellBackToNonPGS)

	var sawInit, sawResult bool
	for _, e := range events {
		switch e.Type {
		case EventInit:
			sawInit = true
		case EventResult:
			sawResult = true
		}
	}
	assert.True(t, sawInit)
	assert.True(t, sawResult)
}

func TestExecutorRunPersistsSessionSearchedPartitions(t *testing.T) {
	state := twoClusterState()
	exec := newTestExecutor(t, &stubLLM{})
	brainRoot := t.TempDir()

	_, err := exec.Run(context.Background(), state, RunOptions{
		Query:     "targeted question",
		Model:     "claude-sonnet-4",
		SessionID: "sess-persist",
		Mode:      types.SessionModeFull,
		NowUnix:   1000,
		BrainRoot: brainRoot,
		BrainHash: state.StateHash(),
	}, nil)
	require.NoError(t, err)

	session := exec.sessions.Load(brainRoot, "sess-persist")
	require.NotNil(t, session)
	assert.Equal(t, 2, session.SearchedCount())
}

type failingLLM struct{}

func (failingLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{}, fmt.Errorf("boom")
}

func TestExecutorRunAllSweepsFailedReturnsSentinel(t *testing.T) {
	state := twoClusterState()
	exec := newTestExecutor(t, failingLLM{})

	_, err := exec.Run(context.Background(), state, RunOptions{
		Query:     "anything",
		Model:     "claude-sonnet-4",
		SessionID: "sess-fail",
		Mode:      types.SessionModeFull,
		NowUnix:   1000,
		BrainRoot: t.TempDir(),
		BrainHash: state.StateHash(),
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAllSweepsFailed)
}
