// Package types holds the data model shared across the brain query engine:
// nodes, edges, thoughts, the aggregate brain state, and the small set of
// error kinds the rest of the module wraps and checks against.
package types

import (
	"sort"
	"strconv"
	"time"
)

// Node is a single memory in the knowledge graph.
type Node struct {
	ID          string         `json:"id"`
	Concept     string         `json:"concept"`
	Tags        TagSet         `json:"tag"`
	Weight      float32        `json:"weight"`
	Activation  float32        `json:"activation"`
	Embedding   []float32      `json:"embedding,omitempty"`
	Cycle       *int64         `json:"cycle,omitempty"`
	SourceRuns  []string       `json:"source_runs,omitempty"`
	InstanceID  string         `json:"instance_id,omitempty"`
	Extras      map[string]any `json:"-"`
}

// TagSet accepts either a single JSON string or an array of strings during
// decode and always marshals back out as a set with stable iteration via
// Slice(). Kept as its own type so the ranker and insight synthesizer can
// treat "tag" uniformly regardless of how the source snapshot encoded it.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from a variadic list of tags.
func NewTagSet(tags ...string) TagSet {
	ts := make(TagSet, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		ts[t] = struct{}{}
	}
	return ts
}

// Has reports whether tag is present.
func (ts TagSet) Has(tag string) bool {
	_, ok := ts[tag]
	return ok
}

// Intersects reports whether ts shares any member with other.
func (ts TagSet) Intersects(other TagSet) bool {
	small, big := ts, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for t := range small {
		if big.Has(t) {
			return true
		}
	}
	return false
}

// Slice returns tags in sorted order so callers get deterministic output.
func (ts TagSet) Slice() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Jaccard computes the Jaccard similarity between two tag sets.
func (ts TagSet) Jaccard(other TagSet) float64 {
	if len(ts) == 0 && len(other) == 0 {
		return 0
	}
	inter := 0
	for t := range ts {
		if other.Has(t) {
			inter++
		}
	}
	union := len(ts) + len(other) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Edge is an undirected weighted relation between two node ids.
type Edge struct {
	Source string  `json:"source_id"`
	Target string  `json:"target_id"`
	Weight float32 `json:"weight"`
}

// Thought is a single time-stamped reasoning entry keyed by cycle.
type Thought struct {
	Cycle      int64     `json:"cycle"`
	Timestamp  time.Time `json:"timestamp"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Goal       string    `json:"goal,omitempty"`
	Surprise   *float32  `json:"surprise,omitempty"`
	InstanceID string    `json:"instance_id,omitempty"`
}

// RunMetadata carries optional per-run provenance recorded alongside a
// snapshot: the ids of the source runs it was built from. Brains that were
// never merged across runs leave this nil.
type RunMetadata struct {
	Runs []string `json:"runs,omitempty"`
}

// BrainState is the immutable aggregate loaded from a single snapshot.
// Once loaded for a query it is never mutated; merges (live journal,
// source-diverse sampling) always produce new slices.
type BrainState struct {
	Nodes        []*Node      `json:"nodes"`
	Edges        []*Edge      `json:"edges"`
	Clusters     []string     `json:"clusters,omitempty"`
	CycleCount   int64        `json:"cycle_count"`
	Timestamp    time.Time    `json:"timestamp"`
	RunMetadata  *RunMetadata `json:"run_metadata,omitempty"`
	IsCluster    bool         `json:"is_cluster"`
	ActiveGoals  int          `json:"active_goals,omitempty"`

	// NodeIndex is built once after load for O(1) id lookups; not
	// serialized, rebuilt by BuildIndex after Unmarshal or merge.
	NodeIndex map[string]*Node `json:"-"`
}

// BuildIndex (re)builds the id->node lookup. Safe to call repeatedly.
func (b *BrainState) BuildIndex() {
	b.NodeIndex = make(map[string]*Node, len(b.Nodes))
	for _, n := range b.Nodes {
		b.NodeIndex[n.ID] = n
	}
}

// IsMerged reports whether this brain aggregates more than one source run,
// i.e. any node carries 2+ sourceRuns or the brain carries run metadata
// naming more than one run. Drives the Context Builder's 1.3x node-limit
// multiplier and its source-diverse sampling path.
func (b *BrainState) IsMerged() bool {
	if b.RunMetadata != nil && len(b.RunMetadata.Runs) > 1 {
		return true
	}
	for _, n := range b.Nodes {
		if len(n.SourceRuns) > 1 {
			return true
		}
	}
	return false
}

// StateHash returns the deterministic cache/versioning key for this brain,
// per spec.md §3: "solo:<cycleCount>:<nodeCount>" for solo brains,
// "cluster:<ts>:<nodeCount>:<activeGoals>" for cluster snapshots.
func (b *BrainState) StateHash() string {
	if b.IsCluster {
		return formatClusterHash(b.Timestamp.Unix(), len(b.Nodes), b.ActiveGoals)
	}
	return formatSoloHash(b.CycleCount, len(b.Nodes))
}

func formatSoloHash(cycleCount int64, nodeCount int) string {
	return "solo:" + strconv.FormatInt(cycleCount, 10) + ":" + strconv.Itoa(nodeCount)
}

func formatClusterHash(ts int64, nodeCount, activeGoals int) string {
	return "cluster:" + strconv.FormatInt(ts, 10) + ":" + strconv.Itoa(nodeCount) + ":" + strconv.Itoa(activeGoals)
}
