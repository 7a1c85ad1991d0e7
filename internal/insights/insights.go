// Package insights synthesizes temporal patterns, concept evolutions,
// node clusters, breakthroughs, and cross-instance consensus summaries
// from a brain's nodes and thoughts (spec.md §4.9).
package insights

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Trend labels a temporal pattern's recent trajectory.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// TemporalPattern is one recurring theme across thoughts.
type TemporalPattern struct {
	Theme       string
	Occurrences int
	Trend       Trend
}

// Evolution flags a concept shift between an early and late window of
// thoughts.
type Evolution struct {
	EarlyExcerpt string
	LateExcerpt  string
	Marker       string
	Significance float64
}

// Cluster is a greedily agglomerated group of similar nodes.
type Cluster struct {
	NodeIDs        []string
	CentralConcept string
}

// Breakthrough is a node or thought flagged as a discovery moment.
type Breakthrough struct {
	NodeID  string // empty if sourced from a thought
	Cycle   *int64 // set if sourced from a thought
	Excerpt string
}

// CrossInstance summarizes tag divergence between a pair of instances.
type CrossInstance struct {
	InstanceA string
	InstanceB string
	Jaccard   float64
	Summary   string // High | Moderate | significant divergence
}

// Report bundles all Insight Synthesizer outputs for one pass.
type Report struct {
	Temporal       []TemporalPattern
	Evolutions     []Evolution
	Clusters       []Cluster
	Breakthroughs  []Breakthrough
	CrossInstances []CrossInstance
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "from": {},
	"have": {}, "they": {}, "were": {}, "been": {}, "their": {}, "about": {},
	"which": {}, "there": {}, "would": {}, "could": {}, "should": {},
}

var evolutionMarkers = []string{"now", "instead", "previously", "no longer", "evolved", "shifted", "changed to"}
var breakthroughTagPattern = regexp.MustCompile(`breakthrough|discovery|insight`)
var breakthroughWordPattern = regexp.MustCompile(`(?i)\b(breakthrough|discovered|realized|found|aha|eureka|insight)\b`)

// Synthesizer computes Insight Synthesizer reports.
type Synthesizer struct {
	cfg *config.EvidenceConfig
}

// New creates a Synthesizer.
func New(cfg *config.EvidenceConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

// Synthesize runs every sub-analysis over state's nodes and thoughts.
func (s *Synthesizer) Synthesize(state *types.BrainState, thoughts []*types.Thought) Report {
	return Report{
		Temporal:       temporalPatterns(thoughts),
		Evolutions:     evolutions(thoughts),
		Clusters:       s.clusters(state),
		Breakthroughs:  breakthroughs(state, thoughts),
		CrossInstances: crossInstances(state),
	}
}

// temporalPatterns counts lowercased content tokens of length >4,
// non-stop-word, over thoughts sorted by cycle; themes with ≥3
// occurrences are emitted with a trend derived from gap intervals
// (spec.md §4.9 "Temporal patterns").
func temporalPatterns(thoughts []*types.Thought) []TemporalPattern {
	if len(thoughts) == 0 {
		return nil
	}

	sorted := make([]*types.Thought, len(thoughts))
	copy(sorted, thoughts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cycle < sorted[j].Cycle })

	occurrences := make(map[string][]int) // theme -> cycle positions it appeared at
	for i, t := range sorted {
		for _, tok := range tokenize(t.Content) {
			if len(tok) <= 4 {
				continue
			}
			if _, stop := stopWords[tok]; stop {
				continue
			}
			occurrences[tok] = append(occurrences[tok], i)
		}
	}

	var patterns []TemporalPattern
	for theme, positions := range occurrences {
		if len(positions) < 3 {
			continue
		}
		patterns = append(patterns, TemporalPattern{
			Theme:       theme,
			Occurrences: len(positions),
			Trend:       deriveTrend(positions, len(sorted)),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Occurrences != patterns[j].Occurrences {
			return patterns[i].Occurrences > patterns[j].Occurrences
		}
		return patterns[i].Theme < patterns[j].Theme
	})

	return patterns
}

// deriveTrend compares the mean gap interval in the last half of
// occurrences against the overall mean.
func deriveTrend(positions []int, total int) Trend {
	if len(positions) < 2 {
		return TrendStable
	}

	gaps := make([]float64, 0, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		gaps = append(gaps, float64(positions[i]-positions[i-1]))
	}

	overallMean := meanOf(gaps)
	half := len(gaps) / 2
	lastHalfMean := meanOf(gaps[half:])

	switch {
	case lastHalfMean < 0.7*overallMean:
		return TrendIncreasing
	case lastHalfMean > 1.3*overallMean:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
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

// evolutions compares the earliest 3 and latest 3 thoughts for evolution
// markers (spec.md §4.9 "Evolutions").
func evolutions(thoughts []*types.Thought) []Evolution {
	if len(thoughts) < 6 {
		return nil
	}

	sorted := make([]*types.Thought, len(thoughts))
	copy(sorted, thoughts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cycle < sorted[j].Cycle })

	early := sorted[:3]
	late := sorted[len(sorted)-3:]

	var out []Evolution
	for _, e := range early {
		for _, l := range late {
			marker := findMarker(e.Content, l.Content)
			if marker == "" {
				continue
			}
			out = append(out, Evolution{
				EarlyExcerpt: truncate(e.Content, 200),
				LateExcerpt:  truncate(l.Content, 200),
				Marker:       marker,
				Significance: 0.7,
			})
		}
	}

	return out
}

func findMarker(early, late string) string {
	lowerEarly, lowerLate := strings.ToLower(early), strings.ToLower(late)
	for _, m := range evolutionMarkers {
		if strings.Contains(lowerEarly, m) || strings.Contains(lowerLate, m) {
			return m
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// clusters greedily agglomerates nodes whose combined tag/word Jaccard
// similarity crosses 0.6, retaining groups of size ≥ MinClusterSize
// (spec.md §4.9 "Clusters").
func (s *Synthesizer) clusters(state *types.BrainState) []Cluster {
	assigned := make([]bool, len(state.Nodes))
	var groups [][]int

	for i := range state.Nodes {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true

		for j := i + 1; j < len(state.Nodes); j++ {
			if assigned[j] {
				continue
			}
			if similarity(state.Nodes[i], state.Nodes[j]) >= 0.6 {
				group = append(group, j)
				assigned[j] = true
			}
		}

		if len(group) >= s.cfg.MinClusterSize {
			groups = append(groups, group)
		}
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, group := range groups {
		ids := make([]string, len(group))
		wordFreq := make(map[string]int)
		for i, idx := range group {
			n := state.Nodes[idx]
			ids[i] = n.ID
			for _, tok := range tokenize(n.Concept) {
				if len(tok) > 3 {
					wordFreq[tok]++
				}
			}
		}
		clusters = append(clusters, Cluster{NodeIDs: ids, CentralConcept: topWords(wordFreq, 3)})
	}

	return clusters
}

func similarity(a, b *types.Node) float64 {
	tagSim := a.Tags.Jaccard(b.Tags)
	wordSim := wordJaccard(a.Concept, b.Concept)
	return 0.6*tagSim + 0.4*wordSim
}

func wordJaccard(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, tok := range tokenize(a) {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, tok := range tokenize(b) {
		setB[tok] = struct{}{}
	}

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func topWords(freq map[string]int, n int) string {
	type scored struct {
		word  string
		count int
	}
	ranked := make([]scored, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, scored{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	words := make([]string, len(ranked))
	for i, r := range ranked {
		words[i] = r.word
	}
	return strings.Join(words, " ")
}

// breakthroughs flags nodes whose tags match the breakthrough pattern
// with activation*weight >= 0.75, plus thoughts matching the breakthrough
// word pattern (spec.md §4.9 "Breakthroughs").
func breakthroughs(state *types.BrainState, thoughts []*types.Thought) []Breakthrough {
	var out []Breakthrough

	for _, n := range state.Nodes {
		if !tagsMatch(n.Tags, breakthroughTagPattern) {
			continue
		}
		if float64(n.Activation)*float64(n.Weight) < 0.75 {
			continue
		}
		out = append(out, Breakthrough{NodeID: n.ID, Excerpt: truncate(n.Concept, 200)})
	}

	for _, t := range thoughts {
		if breakthroughWordPattern.MatchString(t.Content) {
			cycle := t.Cycle
			out = append(out, Breakthrough{Cycle: &cycle, Excerpt: truncate(t.Content, 200)})
		}
	}

	return out
}

func tagsMatch(tags types.TagSet, pattern *regexp.Regexp) bool {
	for tag := range tags {
		if pattern.MatchString(tag) {
			return true
		}
	}
	return false
}

// crossInstances computes pairwise tag Jaccard between instances present
// in a merged brain (spec.md §4.9 "Cross-instance").
func crossInstances(state *types.BrainState) []CrossInstance {
	tagsByInstance := make(map[string]types.TagSet)
	var instances []string
	for _, n := range state.Nodes {
		if n.InstanceID == "" {
			continue
		}
		if _, ok := tagsByInstance[n.InstanceID]; !ok {
			tagsByInstance[n.InstanceID] = make(types.TagSet)
			instances = append(instances, n.InstanceID)
		}
		for tag := range n.Tags {
			tagsByInstance[n.InstanceID][tag] = struct{}{}
		}
	}

	sort.Strings(instances)

	var out []CrossInstance
	for i := 0; i < len(instances); i++ {
		for j := i + 1; j < len(instances); j++ {
			a, b := instances[i], instances[j]
			jaccard := tagsByInstance[a].Jaccard(tagsByInstance[b])
			out = append(out, CrossInstance{
				InstanceA: a,
				InstanceB: b,
				Jaccard:   jaccard,
				Summary:   crossInstanceSummary(jaccard),
			})
		}
	}

	return out
}

func crossInstanceSummary(jaccard float64) string {
	switch {
	case jaccard > 0.7:
		return "High"
	case jaccard > 0.4:
		return "Moderate"
	default:
		return "significant divergence"
	}
}
