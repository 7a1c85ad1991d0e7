// Package query is the Query Orchestrator: it wires the brain store,
// embedding cache, ranker, context builder, query cache, evidence and
// insight analyzers, session tracker, action detector, and (optionally)
// the PGS executor into the single envelope callers see (spec.md §7).
package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JaimeStill/brainquery/internal/actiondetector"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/contextbuilder"
	"github.com/JaimeStill/brainquery/internal/embedder"
	"github.com/JaimeStill/brainquery/internal/embeddingcache"
	"github.com/JaimeStill/brainquery/internal/evidence"
	"github.com/JaimeStill/brainquery/internal/insights"
	"github.com/JaimeStill/brainquery/internal/llm"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/pgs"
	"github.com/JaimeStill/brainquery/internal/querycache"
	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/session"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Dependencies bundles every collaborator the orchestrator needs. PGS and
// Embedder are optional (nil disables the corresponding feature). The
// embedding cache is NOT included here: it is scoped to a brain state's
// hash and supplied per call via Input.Cache, since a single long-lived
// Engine answers queries against whichever state is current.
type Dependencies struct {
	Embedder    embedder.Embedder
	LLM         llm.LLM
	Ranker      *ranker.Ranker
	Builder     *contextbuilder.Builder
	QueryCache  *querycache.Cache
	Sessions    *session.Tracker
	Detector    *actiondetector.Chain
	PGS         *pgs.Executor
	Insights    *insights.Synthesizer
	ActionCfg   *config.ActionDetectorConfig
	EvidenceCfg *config.EvidenceConfig
}

// Engine answers one query end to end.
type Engine struct {
	deps Dependencies
	log  *logger.Logger
}

// New creates an Engine.
func New(deps Dependencies, log *logger.Logger) *Engine {
	return &Engine{deps: deps, log: log.WithComponent("query")}
}

// Input bundles everything a single Query call needs from the caller.
type Input struct {
	State       *types.BrainState
	Thoughts    []*types.Thought
	Query       string
	Options     types.QueryOptions
	Now         time.Time
	BrainRoot   string
	InstanceCnt map[string]int // per-instance thought counts, for cluster consensus
	Cache       embeddingcache.Cache
}

// Query answers a single query, returning a result envelope that never
// carries a raw panic or unwrapped error for recoverable failures
// (spec.md §7). It returns a non-nil error only for the two fatal
// conditions: unavailable brain state and invalid input.
func (e *Engine) Query(ctx context.Context, in Input) (types.QueryResult, error) {
	start := time.Now()

	profile, ok := types.ModeProfiles[in.Options.Mode]
	if !ok {
		return types.QueryResult{}, fmt.Errorf("query: unsupported mode %q: %w", in.Options.Mode, types.ErrInputInvalid)
	}

	if in.State == nil && profile.BrainAccess {
		return types.QueryResult{}, fmt.Errorf("query: %w", types.ErrStateUnavailable)
	}

	limits := types.LimitsFor(in.Options.Model)
	stateHash := ""
	nodesConsidered := 0
	if profile.BrainAccess {
		stateHash = in.State.StateHash()
		nodesConsidered = len(in.State.Nodes)
	}

	cacheKey := querycache.Key{StateHash: stateHash, Query: in.Query, Model: in.Options.Model, Mode: in.Options.Mode}
	if e.deps.QueryCache != nil {
		if cached, ok := e.deps.QueryCache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	// Executive mode is compression-only and never touches brain state
	// (spec.md §4.4 scenario 6): ranking, thought ranking, and PGS all
	// stay skipped rather than merely unused.
	var ranked []ranker.Result
	var thoughtResults []ranker.ThoughtResult
	var pgsOutcome *pgs.Outcome
	usedPGS := false

	if profile.BrainAccess {
		queryVec, semanticOK := e.embedQuery(ctx, in.Query, in.Options.UseSemantic)

		rankOpts := ranker.Options{
			Limit:            in.Options.Limit,
			IncludeConnected: in.Options.IncludeConnected,
			UseSemantic:      semanticOK,
			FilterTags:       in.Options.FilterTags,
			DeepMode:         in.Options.Mode == types.ModeDive || in.Options.Mode == types.ModeExpert,
		}
		if rankOpts.Limit <= 0 {
			rankOpts.Limit = profile.BaseLimit
		}

		ranked = e.deps.Ranker.Rank(in.State, in.Query, queryVec, rankOpts)
		thoughtResults = e.rankThoughts(in, queryVec, semanticOK)

		if e.deps.PGS != nil && in.Options.PGSSessionID != "" {
			outcome, err := e.runPGS(ctx, in, queryVec)
			if err == nil {
				pgsOutcome = &outcome
				usedPGS = true
			} else {
				e.log.Warn("pgs run failed, falling back to direct query", "error", err)
			}
		}
	}

	answer, hadError := e.answer(ctx, in, profile, limits, ranked, thoughtResults, pgsOutcome)

	metadata := e.buildMetadata(in, profile, ranked, thoughtResults, usedPGS, pgsOutcome, answer)

	result := types.QueryResult{
		Answer:   answer,
		Metadata: metadata,
		Performance: types.Performance{
			Cached:          false,
			Duration:        time.Since(start),
			NodesConsidered: nodesConsidered,
			NodesUsed:       len(ranked),
			UsedPGS:         usedPGS,
		},
		HadError: hadError,
	}

	if e.deps.QueryCache != nil && !hadError {
		e.deps.QueryCache.Put(cacheKey, result)
	}

	e.recordSession(in, answer, metadata)

	return result, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string, useSemantic bool) ([]float32, bool) {
	if !useSemantic || e.deps.Embedder == nil {
		return nil, false
	}
	vec, err := e.deps.Embedder.Embed(ctx, query)
	if err != nil {
		e.log.Warn("embedding unavailable, degrading to keyword ranking", "error", err)
		return nil, false
	}
	return vec, true
}

func (e *Engine) rankThoughts(in Input, queryVec []float32, semanticOK bool) []ranker.ThoughtResult {
	if len(in.Thoughts) == 0 {
		return nil
	}
	thoughtVec := func(t *types.Thought) []float32 {
		if in.Cache == nil {
			return nil
		}
		key := embeddingcache.ThoughtKey(t.InstanceID, t.Cycle)
		if v, ok := in.Cache.ThoughtVector(key); ok {
			return v
		}
		return nil
	}
	return e.deps.Ranker.RankThoughts(in.Thoughts, in.Query, queryVec, thoughtVec, semanticOK)
}

func (e *Engine) runPGS(ctx context.Context, in Input, queryVec []float32) (pgs.Outcome, error) {
	runOpts := pgs.RunOptions{
		Query:     in.Query,
		QueryVec:  queryVec,
		Model:     in.Options.Model,
		SessionID: in.Options.PGSSessionID,
		Mode:      in.Options.PGSMode,
		NowUnix:   in.Now.Unix(),
		BrainRoot: in.BrainRoot,
		BrainHash: in.State.StateHash(),
	}
	return e.deps.PGS.Run(ctx, in.State, runOpts, nil)
}

// answer produces the final text. When PGS ran successfully its synthesis
// is the answer; otherwise the orchestrator builds context directly and
// calls the LLM collaborator once.
func (e *Engine) answer(ctx context.Context, in Input, profile types.ModeProfile, limits types.ModelLimits, ranked []ranker.Result, thoughtResults []ranker.ThoughtResult, pgsOutcome *pgs.Outcome) (string, bool) {
	if !profile.BrainAccess {
		return e.compressExecutive(ctx, in, profile)
	}

	if pgsOutcome != nil {
		return pgsOutcome.Answer, pgsOutcome.FellBackToNonPGS
	}

	if e.deps.LLM == nil {
		return "", true
	}

	built := e.deps.Builder.Build(contextbuilder.Input{
		State:        in.State,
		DirectHits:   ranked,
		Thoughts:     thoughtResults,
		PriorContext: in.Options.PriorContext,
		Model:        in.Options.Model,
		Mode:         in.Options.Mode,
	})

	resp, err := e.deps.LLM.Generate(ctx, llm.Request{
		Model:           in.Options.Model,
		Instructions:    "Answer the user's question using only the supplied context.",
		Input:           built.Context + "\n\nQuestion: " + in.Query,
		MaxTokens:       profile.MaxOutputTokens,
		ReasoningEffort: llm.ReasoningEffort(profile.ReasoningEffort),
	})
	if err != nil {
		e.log.Warn("llm generation failed", "error", err)
		return "", true
	}
	return resp.Content, resp.HadError
}

// executiveSections labels the five-part structure spec.md §4.4 scenario 6
// requires from an executive compression.
const executiveSections = "A) Decision, B) Rationale, C) Risks, D) Dependencies, E) Next Steps"

// executiveMaxChars is the hard output ceiling for executive compression,
// enforced locally rather than trusted to the LLM collaborator's budget.
const executiveMaxChars = 2400

// provenanceTokenPattern strips the "[Mem N]"/"[Cycle N]" tokens an
// executive summary must never surface (spec.md §4.4 scenario 6).
var provenanceTokenPattern = regexp.MustCompile(`\[Mem \d+\]|\[Cycle \d+\]`)

// compressExecutive implements the "compress baseAnswer" operation: the
// only input it reads off Input is Options.BaseAnswer, and it never
// touches in.State or in.Thoughts (spec.md §4.4 scenario 6 "Executive
// compression"). The brain store, ranker, and context builder are all
// bypassed entirely.
func (e *Engine) compressExecutive(ctx context.Context, in Input, profile types.ModeProfile) (string, bool) {
	if e.deps.LLM == nil {
		return "", true
	}

	baseAnswer := strings.TrimSpace(in.Options.BaseAnswer)
	if baseAnswer == "" {
		return "", true
	}

	resp, err := e.deps.LLM.Generate(ctx, llm.Request{
		Model: in.Options.Model,
		Instructions: "Compress the given answer into exactly five labeled sections: " +
			executiveSections + ". Do not include any provenance markers such as [Mem N] or [Cycle N]. " +
			"Keep the total well under 2400 characters.",
		Input:           baseAnswer,
		MaxTokens:       profile.MaxOutputTokens,
		ReasoningEffort: llm.ReasoningEffort(profile.ReasoningEffort),
	})
	if err != nil {
		e.log.Warn("executive compression failed", "error", err)
		return "", true
	}

	compressed := provenanceTokenPattern.ReplaceAllString(resp.Content, "")
	if len(compressed) > executiveMaxChars {
		compressed = compressed[:executiveMaxChars]
	}

	return compressed, resp.HadError
}

func (e *Engine) buildMetadata(in Input, profile types.ModeProfile, ranked []ranker.Result, thoughtResults []ranker.ThoughtResult, usedPGS bool, pgsOutcome *pgs.Outcome, answer string) map[string]any {
	if !profile.BrainAccess {
		return nil
	}

	meta := map[string]any{}

	thoughts := make([]*types.Thought, 0, len(thoughtResults))
	for _, tr := range thoughtResults {
		thoughts = append(thoughts, tr.Thought)
	}

	isCluster := in.State.IsCluster
	ev := evidence.Analyze(in.Query, len(in.State.Nodes), ranked, thoughts, isCluster, in.InstanceCnt)
	meta["evidence"] = ev

	if e.deps.Insights != nil && len(thoughts) > 0 {
		meta["insights"] = e.deps.Insights.Synthesize(in.State, thoughts)
	}

	if e.deps.Detector != nil {
		detection := e.deps.Detector.Detect(context.Background(), in.Query)
		meta["action"] = detection

		if detection.Detected && e.deps.ActionCfg != nil && strings.TrimSpace(answer) != "" {
			artifacts := actiondetector.ExtractArtifacts(answer, e.deps.ActionCfg)
			if len(artifacts) > 0 {
				written, err := actiondetector.WriteArtifacts(e.deps.ActionCfg, in.Now.Unix(), artifacts)
				if err != nil {
					e.log.Warn("failed writing artifacts", "error", err)
				} else {
					meta["artifacts"] = written
				}
			}
		}
	}

	if usedPGS && pgsOutcome != nil {
		meta["pgs_partitions_total"] = pgsOutcome.PartitionsTotal
		meta["pgs_partitions_used"] = pgsOutcome.PartitionsUsed
	}

	return meta
}

func (e *Engine) recordSession(in Input, answer string, metadata map[string]any) {
	if e.deps.Sessions == nil || in.Options.SessionID == "" {
		return
	}
	s := e.deps.Sessions.GetOrCreate(in.Options.SessionID, in.Now)
	if len(s.Queries) == 0 {
		s.Context = session.Extract(in.Query + " " + answer)
	}
	e.deps.Sessions.RecordTurn(in.Options.SessionID, types.QueryTurn{
		Query:     in.Query,
		Answer:    answer,
		Metadata:  metadata,
		Timestamp: in.Now,
	}, in.Now)
}
