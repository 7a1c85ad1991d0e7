// Package ranker scores and orders a brain's nodes and thoughts against a
// query using hybrid semantic+keyword relevance, tag reweighting,
// provenance boosts, and optional connected-node expansion (spec.md §4.3).
package ranker

import (
	"math"
	"sort"
	"strings"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

// metaTags are excluded before scoring regardless of relevance.
var metaTags = map[string]struct{}{
	"dream":         {},
	"reasoning":     {},
	"introspection": {},
}

var metaPrefixes = []string{"[DREAM]", "[REASONING]"}

// tagBoosts and tagDeboosts are the multiplicative tag reweighting tables.
var tagBoosts = map[string]float64{
	"agent_finding": 1.5,
	"discovery":     1.5,
	"breakthrough":  1.6,
	"research":      1.4,
	"analysis":      1.3,
	"synthesis":     1.3,
	"finding":       1.4,
	"evidence":      1.3,
}

var tagDeboosts = map[string]float64{
	"agent_insight": 0.6,
	"summary":       0.7,
	"consolidated":  0.7,
	"coordinator":   0.6,
	"meta":          0.5,
	"process":       0.6,
}

// Options bundles the per-query ranking knobs (spec.md §4.3 Inputs).
type Options struct {
	Limit            int
	IncludeConnected bool
	UseSemantic      bool
	FilterTags       []string
	DeepMode         bool
}

// Result is a single scored node.
type Result struct {
	Node      *types.Node
	Score     float64
	Connected bool
}

// Ranker scores nodes against a query.
type Ranker struct {
	cfg *config.RankerConfig
}

// New creates a Ranker.
func New(cfg *config.RankerConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank scores and orders state's nodes for query, applying the meta
// pre-filter, hybrid scoring, tag filter, and optional connected expansion.
func (r *Ranker) Rank(state *types.BrainState, query string, queryVec []float32, opts Options) []Result {
	tokens := queryTokens(query)
	queryLower := strings.ToLower(query)

	var results []Result
	for _, n := range state.Nodes {
		if isMeta(n) {
			continue
		}

		score := r.score(n, queryLower, tokens, queryVec, opts.UseSemantic)
		results = append(results, Result{Node: n, Score: score})
	}

	sortResults(results)

	if len(opts.FilterTags) > 0 {
		results = filterByTags(results, opts.FilterTags)
	}

	if opts.IncludeConnected {
		results = r.expandConnected(state, results, opts.DeepMode)
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results
}

func isMeta(n *types.Node) bool {
	for tag := range metaTags {
		if n.Tags.Has(tag) {
			return true
		}
	}
	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(n.Concept, prefix) {
			return true
		}
	}
	return false
}

func (r *Ranker) score(n *types.Node, queryLower string, tokens []string, queryVec []float32, useSemantic bool) float64 {
	semantic := 0.0
	hasVec := useSemantic && len(queryVec) > 0 && len(n.Embedding) == len(queryVec)
	if hasVec {
		semantic = 100 * cosine(queryVec, n.Embedding)
	}

	keyword := keywordScore(strings.ToLower(n.Concept), queryLower, tokens)

	var base float64
	if hasVec {
		base = 0.7*semantic + 0.3*keyword
	} else {
		base = keyword
	}

	base *= 0.5 + float64(n.Activation)*float64(n.Weight)
	base *= tagMultiplier(n.Tags)

	if len(n.SourceRuns) > 1 {
		base *= 1 + 0.15*float64(len(n.SourceRuns)-1)
	}

	return base
}

func keywordScore(conceptLower, queryLower string, tokens []string) float64 {
	score := 0.0
	if queryLower != "" && strings.Contains(conceptLower, queryLower) {
		score += 50
	}
	for i, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if strings.Contains(conceptLower, tok) {
			score += 3 * float64(i+1)
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func tagMultiplier(tags types.TagSet) float64 {
	mult := 1.0
	for tag := range tags {
		if b, ok := tagBoosts[tag]; ok {
			mult *= b
		}
		if d, ok := tagDeboosts[tag]; ok {
			mult *= d
		}
	}
	return mult
}

func queryTokens(query string) []string {
	return strings.Fields(query)
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

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Node.ID < results[j].Node.ID
	})
}

func filterByTags(results []Result, filter []string) []Result {
	want := types.NewTagSet(filter...)
	kept := results[:0]
	for _, r := range results {
		if r.Node.Tags.Intersects(want) {
			kept = append(kept, r)
		}
	}
	return kept
}

// expandConnected adds edge neighbors of the top-scored results that
// aren't already present, per spec.md §4.3 "Connected expansion".
func (r *Ranker) expandConnected(state *types.BrainState, results []Result, deep bool) []Result {
	if len(results) == 0 {
		return results
	}

	topCount := clampInt(int(math.Ceil(0.1*float64(len(results)))), r.cfg.MinConnectedExpansion, r.cfg.MaxConnectedExpansion)
	if topCount > len(results) {
		topCount = len(results)
	}

	maxAdd := 15
	if half := int(math.Ceil(float64(topCount) * 0.5)); half > maxAdd {
		maxAdd = half
	}
	if deep && maxAdd < r.cfg.DeepModeMaxExpansion {
		maxAdd = r.cfg.DeepModeMaxExpansion
	}

	present := make(map[string]struct{}, len(results))
	for _, res := range results {
		present[res.Node.ID] = struct{}{}
	}

	neighborSet := make(map[string]struct{})
	for _, res := range results[:topCount] {
		for _, e := range state.Edges {
			var otherID string
			switch res.Node.ID {
			case e.Source:
				otherID = e.Target
			case e.Target:
				otherID = e.Source
			default:
				continue
			}
			if _, seen := present[otherID]; seen {
				continue
			}
			neighborSet[otherID] = struct{}{}
		}
	}

	neighbors := make([]string, 0, len(neighborSet))
	for id := range neighborSet {
		neighbors = append(neighbors, id)
	}
	sort.Strings(neighbors)

	added := 0
	for _, id := range neighbors {
		if added >= maxAdd {
			break
		}
		node, ok := state.NodeIndex[id]
		if !ok {
			continue
		}
		results = append(results, Result{Node: node, Connected: true})
		present[id] = struct{}{}
		added++
	}

	return results
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
