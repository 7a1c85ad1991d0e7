package pgs

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Partitioner derives PGS partitions from a brain state: Louvain
// community detection, size refinement, then per-partition enrichment
// (spec.md §4.6).
type Partitioner struct {
	cfg *config.PGSConfig
}

// New creates a Partitioner.
func New(cfg *config.PGSConfig) *Partitioner {
	return &Partitioner{cfg: cfg}
}

// Partition runs the full pipeline and returns the enriched partitions.
func (p *Partitioner) Partition(state *types.BrainState) []types.Partition {
	g := buildGraph(state)
	if len(g.nodeIDs) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(1))
	groups := louvain(g, p.cfg, rng)
	groups = mergeSmall(g, groups, p.cfg)
	groups = splitOversize(g, groups, p.cfg)

	partitions := make([]types.Partition, 0, len(groups))
	nodeToPartition := make(map[int]int, len(g.nodeIDs))
	for pi, members := range groups {
		for _, m := range members {
			nodeToPartition[m] = pi
		}
	}

	for pi, members := range groups {
		partitions = append(partitions, p.enrich(state, g, pi, members, nodeToPartition))
	}

	return partitions
}

func (p *Partitioner) enrich(state *types.BrainState, g *graph, idx int, members []int, nodeToPartition map[int]int) types.Partition {
	nodeIDs := make([]string, len(members))
	for i, m := range members {
		nodeIDs[i] = g.nodeIDs[m]
	}

	partition := types.Partition{
		ID:        fmt.Sprintf("p%d", idx),
		NodeIDs:   nodeIDs,
		NodeCount: len(nodeIDs),
	}

	partition.CentroidEmbedding = centroid(state, nodeIDs)
	partition.Keywords = keywords(state, nodeIDs)
	partition.AdjacentPartitions = adjacentPartitions(g, members, idx, nodeToPartition)
	partition.Summary = summary(state, nodeIDs, partition.Keywords)

	return partition
}

// centroid is the element-wise mean of member embeddings that exist and
// share dimension; nil if none qualify (spec.md §4.6 "Centroid").
func centroid(state *types.BrainState, nodeIDs []string) []float32 {
	var dim int
	var sum []float64
	count := 0

	for _, id := range nodeIDs {
		n, ok := state.NodeIndex[id]
		if !ok || len(n.Embedding) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(n.Embedding)
			sum = make([]float64, dim)
		}
		if len(n.Embedding) != dim {
			continue
		}
		for i, v := range n.Embedding {
			sum[i] += float64(v)
		}
		count++
	}

	if count == 0 {
		return nil
	}

	floats.Scale(1/float64(count), sum)

	out := make([]float32, dim)
	for i, v := range sum {
		out[i] = float32(v)
	}
	return out
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "it": {}, "for": {}, "on": {}, "with": {}, "as": {}, "by": {}, "at": {},
	"this": {}, "that": {}, "be": {}, "are": {}, "was": {}, "were": {}, "from": {},
}

// keywords is document-frequency scoring over de-punctuated, lowercased,
// stop-worded concept tokens. Top 50 retained internally, top 20 exposed
// (spec.md §4.6 "Keywords").
func keywords(state *types.BrainState, nodeIDs []string) []string {
	df := make(map[string]int)

	for _, id := range nodeIDs {
		n, ok := state.NodeIndex[id]
		if !ok {
			continue
		}
		seen := make(map[string]struct{})
		for _, tok := range tokenize(n.Concept) {
			if _, stop := stopWords[tok]; stop || len(tok) <= 2 {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	type scored struct {
		word  string
		count int
	}
	ranked := make([]scored, 0, len(df))
	for w, c := range df {
		ranked = append(ranked, scored{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	top := ranked
	if len(top) > 50 {
		top = top[:50]
	}

	exposeCount := 20
	if exposeCount > len(top) {
		exposeCount = len(top)
	}
	out := make([]string, exposeCount)
	for i := 0; i < exposeCount; i++ {
		out[i] = top[i].word
	}
	return out
}

func tokenize(s string) []string {
	lower := strings.ToLower(s)
	var sb strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Fields(sb.String())
}

// adjacentPartitions tallies cross-partition edge weight counts and keeps
// the top 5 (spec.md §4.6 "Adjacent partitions").
func adjacentPartitions(g *graph, members []int, idx int, nodeToPartition map[int]int) []types.AdjacentPartition {
	counts := make(map[int]int)
	for _, node := range members {
		for neighbor := range g.adjacency[node] {
			other := nodeToPartition[neighbor]
			if other == idx {
				continue
			}
			counts[other]++
		}
	}

	type scored struct {
		partition int
		count     int
	}
	ranked := make([]scored, 0, len(counts))
	for p, c := range counts {
		ranked = append(ranked, scored{p, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].partition < ranked[j].partition
	})

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	out := make([]types.AdjacentPartition, len(ranked))
	for i, r := range ranked {
		out[i] = types.AdjacentPartition{ID: fmt.Sprintf("p%d", r.partition), SharedEdges: r.count}
	}
	return out
}

// summary is the top-weighted member's first 120 chars plus its top-8
// keywords (spec.md §4.6 "Summary").
func summary(state *types.BrainState, nodeIDs []string, kw []string) string {
	var top *types.Node
	for _, id := range nodeIDs {
		n, ok := state.NodeIndex[id]
		if !ok {
			continue
		}
		if top == nil || n.Weight > top.Weight {
			top = n
		}
	}

	preview := ""
	if top != nil {
		preview = truncate(top.Concept, 120)
	}

	kwTop := kw
	if len(kwTop) > 8 {
		kwTop = kwTop[:8]
	}

	return strings.TrimSpace(preview + " " + strings.Join(kwTop, ", "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
