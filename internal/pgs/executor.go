package pgs

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/llm"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

// broadQueryPatterns detects queries asking for a sweep over everything
// rather than a targeted lookup (spec.md §4.7 "Routing").
var broadQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what.*(surpris|miss|gap)`),
	regexp.MustCompile(`(?i)don.*t.*know`),
	regexp.MustCompile(`(?i)everything`),
	regexp.MustCompile(`(?i)all.*partition`),
	regexp.MustCompile(`(?i)comprehensive.*overview`),
}

// Executor runs the partition→route→sweep→synthesize pipeline (spec.md
// §4.7). It calls the LLM collaborator many times: once per swept
// partition plus one synthesis call.
type Executor struct {
	cfg         *config.PGSConfig
	partitioner *Partitioner
	cache       *Cache
	sessions    *SessionStore
	llm         llm.LLM
	log         *logger.Logger
}

// NewExecutor wires an Executor from its collaborators.
func NewExecutor(cfg *config.PGSConfig, partitioner *Partitioner, cache *Cache, sessions *SessionStore, llmClient llm.LLM, log *logger.Logger) *Executor {
	return &Executor{
		cfg:         cfg,
		partitioner: partitioner,
		cache:       cache,
		sessions:    sessions,
		llm:         llmClient,
		log:         log.WithComponent("pgs.executor"),
	}
}

// RunOptions bundles a single PGS invocation's caller-supplied knobs.
type RunOptions struct {
	Query        string
	QueryVec     []float32
	Model        string
	SessionID    string
	Mode         types.SessionMode
	NowUnix      int64
	BrainRoot    string
	BrainHash    string
}

// SweepOutput is one partition's structured sweep result.
type SweepOutput struct {
	PartitionID   string
	DomainState   string
	Findings      string
	OutboundFlags string
	Absences      string
}

// Outcome is what Run returns: the synthesized answer plus enough
// accounting for the orchestrator's Performance metadata.
type Outcome struct {
	Answer          string
	PartitionsTotal int
	PartitionsUsed  int
	FellBackToNonPGS bool
}

// Run executes the full PGS pipeline for one query.
func (e *Executor) Run(ctx context.Context, state *types.BrainState, opts RunOptions, sink Sink) (Outcome, error) {
	emit(sink, Event{Type: EventInit})

	emit(sink, Event{Type: EventPhase, Data: PhaseData{Index: 1, Total: 4, Name: "partitions"}})
	partitions := e.getOrCreatePartitions(state, opts.BrainRoot, opts.BrainHash, opts.NowUnix)
	if len(partitions) == 0 {
		return Outcome{FellBackToNonPGS: true}, fmt.Errorf("%w: brain produced no partitions", types.ErrAllSweepsFailed)
	}

	session := e.sessions.Load(opts.BrainRoot, opts.SessionID)
	if session == nil {
		session = &types.PGSSession{
			SessionID:       opts.SessionID,
			Query:           opts.Query,
			Mode:            opts.Mode,
			TotalPartitions: len(partitions),
			Timestamp:       time.Unix(opts.NowUnix, 0),
		}
	}
	emit(sink, Event{Type: EventSession, Data: session})

	emit(sink, Event{Type: EventPhase, Data: PhaseData{Index: 2, Total: 4, Name: "route"}})
	routed := e.route(partitions, opts.Query, opts.QueryVec, session, opts.Mode)
	emit(sink, Event{Type: EventRouted, Data: RoutedData{PartitionIDs: partitionIDs(routed), Summaries: partitionSummaries(routed)}})

	emit(sink, Event{Type: EventPhase, Data: PhaseData{Index: 3, Total: 4, Name: "sweep"}})
	outputs := e.sweepAll(ctx, state, partitions, routed, opts, sink)

	if len(outputs) == 0 {
		return Outcome{PartitionsTotal: len(partitions), FellBackToNonPGS: true},
			fmt.Errorf("%w", types.ErrAllSweepsFailed)
	}

	session.MarkSearched(sweptIDs(outputs))
	if err := e.sessions.Save(opts.BrainRoot, session); err != nil {
		e.log.Warn("failed to persist pgs session", "error", err)
	}
	emit(sink, Event{Type: EventSessionUpdated, Data: session})

	emit(sink, Event{Type: EventPhase, Data: PhaseData{Index: 4, Total: 4, Name: "synthesize"}})
	answer, err := e.synthesize(ctx, opts.Query, opts.Model, outputs)
	if err != nil {
		return Outcome{}, err
	}

	emit(sink, Event{Type: EventResult, Data: answer})

	return Outcome{
		Answer:          answer,
		PartitionsTotal: len(partitions),
		PartitionsUsed:  len(outputs),
	}, nil
}

func (e *Executor) getOrCreatePartitions(state *types.BrainState, brainRoot, brainHash string, nowUnix int64) []types.Partition {
	if cached := e.cache.Load(brainRoot, brainHash); cached != nil {
		return cached
	}

	partitions := e.partitioner.Partition(state)
	if err := e.cache.Save(brainRoot, brainHash, partitions, nowUnix); err != nil {
		e.log.Warn("failed to persist partition cache", "error", err)
	}
	return partitions
}

// route implements spec.md §4.7's routing and session-mode logic.
func (e *Executor) route(partitions []types.Partition, query string, queryVec []float32, session *types.PGSSession, mode types.SessionMode) []types.Partition {
	candidates := e.routeByRelevance(partitions, query, queryVec)

	switch mode {
	case types.SessionModeContinue:
		remaining := excludeSearched(candidates, session)
		if len(remaining) == 0 {
			return firstN(partitions, e.cfg.MaxSweepPartitions)
		}
		return remaining

	case types.SessionModeTargeted:
		unsearched := excludeSearched(partitions, session)
		reRouted := e.routeByRelevance(unsearched, query, queryVec)
		if len(reRouted) == 0 {
			return firstN(partitions, e.cfg.MaxSweepPartitions)
		}
		return reRouted

	default: // full
		return candidates
	}
}

func (e *Executor) routeByRelevance(partitions []types.Partition, query string, queryVec []float32) []types.Partition {
	if len(queryVec) == 0 || isBroadQuery(query) {
		return firstN(partitions, e.cfg.MaxSweepPartitions)
	}

	type scored struct {
		partition  types.Partition
		similarity float64
	}
	var ranked []scored
	for _, p := range partitions {
		if len(p.CentroidEmbedding) != len(queryVec) {
			continue
		}
		ranked = append(ranked, scored{p, cosine(queryVec, p.CentroidEmbedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].similarity > ranked[j].similarity })

	var kept []types.Partition
	for _, r := range ranked {
		if r.similarity >= e.cfg.RelevanceThreshold {
			kept = append(kept, r.partition)
		}
	}

	if e.cfg.MinSweepPartitions > 0 && len(kept) < e.cfg.MinSweepPartitions {
		kept = nil
		for i := 0; i < len(ranked) && i < e.cfg.MinSweepPartitions; i++ {
			kept = append(kept, ranked[i].partition)
		}
	}

	return firstN(kept, e.cfg.MaxSweepPartitions)
}

func isBroadQuery(query string) bool {
	for _, p := range broadQueryPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

func firstN(partitions []types.Partition, n int) []types.Partition {
	if len(partitions) > n {
		return partitions[:n]
	}
	return partitions
}

func excludeSearched(partitions []types.Partition, session *types.PGSSession) []types.Partition {
	if session == nil || len(session.SearchedPartitionIDs) == 0 {
		return partitions
	}
	var out []types.Partition
	for _, p := range partitions {
		if !session.SearchedPartitionIDs[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// sweepAll runs sweeps with at most MaxConcurrentSweeps in flight at once
// (spec.md §4.7 "Concurrency"), dropping failed sweeps from synthesis input.
// A new sweep starts as soon as a running one finishes; sweeps are not
// grouped into fixed batches.
func (e *Executor) sweepAll(ctx context.Context, state *types.BrainState, all, routed []types.Partition, opts RunOptions, sink Sink) []SweepOutput {
	adjacencyIndex := make(map[string]types.Partition, len(all))
	for _, p := range all {
		adjacencyIndex[p.ID] = p
	}

	var mu sync.Mutex
	var outputs []SweepOutput

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrentSweeps)

	for i, partition := range routed {
		i, partition := i, partition
		g.Go(func() error {
			emit(sink, Event{Type: EventSweepProgress, Data: SweepProgressData{PartitionID: partition.ID, Index: i, Total: len(routed), Status: SweepStarted}})

			out, err := e.sweepOne(gctx, state, partition, adjacencyIndex, opts)
			if err != nil {
				e.log.Warn("sweep failed", "partition", partition.ID, "error", err)
				emit(sink, Event{Type: EventSweepProgress, Data: SweepProgressData{PartitionID: partition.ID, Index: i, Total: len(routed), Status: SweepFailed}})
				return nil // individual sweep failure doesn't abort the group
			}

			emit(sink, Event{Type: EventSweepProgress, Data: SweepProgressData{PartitionID: partition.ID, Index: i, Total: len(routed), Status: SweepComplete}})

			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // errors are swallowed per-sweep above; group itself never fails

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].PartitionID < outputs[j].PartitionID })
	return outputs
}

func (e *Executor) sweepOne(ctx context.Context, state *types.BrainState, partition types.Partition, adjacencyIndex map[string]types.Partition, opts RunOptions) (SweepOutput, error) {
	body := e.buildSweepBody(state, partition, adjacencyIndex)

	instructions := "Analyze this partition of a knowledge graph. Respond with exactly four sections: " +
		"Domain State, Findings, Outbound Flags, Absences."

	resp, err := e.llm.Generate(ctx, llm.Request{
		Model:           opts.Model,
		Instructions:    instructions,
		Input:           fmt.Sprintf("Query: %s\n\n%s", opts.Query, body),
		MaxTokens:       e.cfg.SweepMaxTokens,
		ReasoningEffort: types.EffortMedium,
	})
	if err != nil || resp.HadError {
		return SweepOutput{}, fmt.Errorf("%w: partition %s", types.ErrSweepFailed, partition.ID)
	}

	return parseSweepOutput(partition.ID, resp.Content), nil
}

// buildSweepBody concatenates the partition's member nodes at full
// fidelity (char-budgeted to SweepCharBudget) plus adjacent-partition
// summaries, per spec.md §4.7 "Concurrency".
func (e *Executor) buildSweepBody(state *types.BrainState, partition types.Partition, adjacencyIndex map[string]types.Partition) string {
	var sb strings.Builder
	budget := e.cfg.SweepCharBudget

	for _, id := range partition.NodeIDs {
		n, ok := state.NodeIndex[id]
		if !ok {
			continue
		}
		line := fmt.Sprintf("- [%s] %s\n", n.ID, n.Concept)
		if sb.Len()+len(line) > budget {
			break
		}
		sb.WriteString(line)
	}

	sb.WriteString("\nAdjacent partitions:\n")
	for _, adj := range partition.AdjacentPartitions {
		if other, ok := adjacencyIndex[adj.ID]; ok {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", adj.ID, other.Summary))
		}
	}

	return sb.String()
}

func parseSweepOutput(partitionID, content string) SweepOutput {
	out := SweepOutput{PartitionID: partitionID}
	sections := map[string]*string{
		"domain state":   &out.DomainState,
		"findings":       &out.Findings,
		"outbound flags": &out.OutboundFlags,
		"absences":       &out.Absences,
	}

	current := &out.Findings
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "#"), ":")))
		if dest, ok := sections[trimmed]; ok {
			current = dest
			continue
		}
		if *current != "" {
			*current += "\n"
		}
		*current += line
	}

	return out
}

// synthesize is the single LLM call over concatenated sweep outputs,
// high reasoning effort, 16k output budget (spec.md §4.7 "Synthesis").
func (e *Executor) synthesize(ctx context.Context, query, model string, outputs []SweepOutput) (string, error) {
	var sb strings.Builder
	for _, o := range outputs {
		sb.WriteString(fmt.Sprintf("### Partition %s\nDomain State: %s\nFindings: %s\nOutbound Flags: %s\nAbsences: %s\n\n",
			o.PartitionID, o.DomainState, o.Findings, o.OutboundFlags, o.Absences))
	}

	instructions := "Synthesize these partition sweep reports into one answer. Chase outbound flags across " +
		"partitions, aggregate absence signals, identify convergent findings, and commit to a thesis rather " +
		"than surveying."

	resp, err := e.llm.Generate(ctx, llm.Request{
		Model:           model,
		Instructions:    instructions,
		Input:           fmt.Sprintf("Query: %s\n\n%s", query, sb.String()),
		MaxTokens:       e.cfg.SynthesisMaxTokens,
		ReasoningEffort: types.EffortHigh,
	})
	if err != nil || resp.HadError {
		return "", fmt.Errorf("%w: synthesis", types.ErrLLMFailed)
	}

	return resp.Content, nil
}

func partitionIDs(partitions []types.Partition) []string {
	ids := make([]string, len(partitions))
	for i, p := range partitions {
		ids[i] = p.ID
	}
	return ids
}

func partitionSummaries(partitions []types.Partition) []string {
	summaries := make([]string, len(partitions))
	for i, p := range partitions {
		summaries[i] = p.Summary
	}
	return summaries
}

func sweptIDs(outputs []SweepOutput) []string {
	ids := make([]string, len(outputs))
	for i, o := range outputs {
		ids[i] = o.PartitionID
	}
	return ids
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
