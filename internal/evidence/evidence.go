// Package evidence computes coverage, confidence, consensus, temporal,
// and gap metrics over the ranked evidence a query selected (spec.md §4.8).
package evidence

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JaimeStill/brainquery/internal/ranker"
	"github.com/JaimeStill/brainquery/internal/types"
)

// Report bundles every Evidence Analyzer metric for one query.
type Report struct {
	Coverage   Coverage
	Confidence Confidence
	Consensus  *Consensus
	Temporal   Temporal
	Gaps       []Gap
}

// Coverage rates how much of the candidate pool the query actually used.
type Coverage struct {
	Used   int
	Total  int
	Ratio  float64
	Rating string
}

// Confidence rates the selected evidence's strength.
type Confidence struct {
	Score  float64
	Rating string
}

// Consensus only applies when the source state is a cluster snapshot.
type Consensus struct {
	Participation float64
	NormVariance  float64
	Score         float64
}

// Temporal reports the cycle span and recency skew of thought evidence.
type Temporal struct {
	Span         int64
	Distribution string // recent-heavy | historical-heavy | even
	RecentBias   float64
}

// GapKind names one of the fixed gap checks.
type GapKind string

const (
	GapTemporal   GapKind = "temporal"
	GapCoverage   GapKind = "coverage"
	GapThoughts   GapKind = "thoughts"
	GapComplexity GapKind = "complexity"
)

// GapSeverity is the fixed rule-set's output severity.
type GapSeverity string

const (
	SeverityMedium GapSeverity = "medium"
	SeverityHigh   GapSeverity = "high"
)

// Gap is one flagged evidence weakness.
type Gap struct {
	Kind     GapKind
	Severity GapSeverity
}

var confidenceTagBumps = map[string]float64{
	"agent_insight": 1.3,
	"breakthrough":  1.4,
	"validated":     1.2,
}

var reasoningWords = []string{"because", "therefore", "thus"}
var evidenceWords = []string{"observed", "found", "discovered"}

// Analyze computes the full Report for one query's selected evidence.
func Analyze(query string, total int, used []ranker.Result, thoughts []*types.Thought, isCluster bool, instanceCounts map[string]int) Report {
	return Report{
		Coverage:   coverage(used, total),
		Confidence: confidence(used, thoughts),
		Consensus:  consensus(isCluster, instanceCounts),
		Temporal:   temporal(thoughts),
		Gaps:       gaps(query, total, used, thoughts),
	}
}

func coverage(used []ranker.Result, total int) Coverage {
	if total == 0 {
		return Coverage{Rating: "limited"}
	}
	ratio := float64(len(used)) / float64(total)
	return Coverage{Used: len(used), Total: total, Ratio: ratio, Rating: coverageRating(ratio)}
}

func coverageRating(ratio float64) string {
	switch {
	case ratio >= 0.7:
		return "excellent"
	case ratio >= 0.5:
		return "good"
	case ratio >= 0.3:
		return "fair"
	default:
		return "limited"
	}
}

func confidence(used []ranker.Result, thoughts []*types.Thought) Confidence {
	memoryScore := 0.0
	if len(used) > 0 {
		sum := 0.0
		for _, r := range used {
			score := float64(r.Node.Activation) * float64(r.Node.Weight)
			for tag := range r.Node.Tags {
				if bump, ok := confidenceTagBumps[tag]; ok {
					score *= bump
				}
			}
			sum += score
		}
		memoryScore = sum / float64(len(used))
	}

	coherence := thoughtCoherence(thoughts)
	score := 0.7*memoryScore + 0.3*coherence

	return Confidence{Score: score, Rating: confidenceRating(score)}
}

func thoughtCoherence(thoughts []*types.Thought) float64 {
	for _, t := range thoughts {
		lower := strings.ToLower(t.Content)
		if containsAny(lower, reasoningWords) && containsAny(lower, evidenceWords) {
			return 1.0
		}
	}
	return 0.7
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func confidenceRating(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.6:
		return "medium"
	case score >= 0.4:
		return "low"
	default:
		return "very low"
	}
}

// consensus only computes when isCluster is true (spec.md §4.8 "Consensus").
func consensus(isCluster bool, instanceCounts map[string]int) *Consensus {
	if !isCluster || len(instanceCounts) == 0 {
		return nil
	}

	total := 0
	counts := make([]float64, 0, len(instanceCounts))
	for _, c := range instanceCounts {
		total += c
		counts = append(counts, float64(c))
	}

	participation := float64(len(instanceCounts)) / float64(total)
	if total == 0 {
		participation = 0
	}

	mean := 0.0
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))

	variance := 0.0
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))

	normVar := 0.0
	if mean > 0 {
		normVar = variance / (mean * mean)
		if normVar > 1 {
			normVar = 1
		}
	}

	return &Consensus{
		Participation: participation,
		NormVariance:  normVar,
		Score:         participation * (1 - 0.5*normVar),
	}
}

func temporal(thoughts []*types.Thought) Temporal {
	if len(thoughts) == 0 {
		return Temporal{Distribution: "even"}
	}

	sorted := make([]*types.Thought, len(thoughts))
	copy(sorted, thoughts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cycle < sorted[j].Cycle })

	span := sorted[len(sorted)-1].Cycle - sorted[0].Cycle

	mid := len(sorted) / 2
	recentCount := len(sorted) - mid
	ratio := float64(recentCount) / float64(len(sorted))

	distribution := "even"
	switch {
	case ratio > 0.6:
		distribution = "recent-heavy"
	case ratio < 0.3:
		distribution = "historical-heavy"
	}

	return Temporal{Span: span, Distribution: distribution, RecentBias: ratio}
}

var tokenPattern = regexp.MustCompile(`\S+`)

// gaps applies the fixed rule set from spec.md §4.8 "Gaps".
func gaps(query string, total int, used []ranker.Result, thoughts []*types.Thought) []Gap {
	var out []Gap

	t := temporal(thoughts)
	if t.Span > 10 && len(thoughts) < 5 {
		out = append(out, Gap{Kind: GapTemporal, Severity: SeverityMedium})
	}

	if total > 0 && float64(len(used))/float64(total) < 0.05 {
		out = append(out, Gap{Kind: GapCoverage, Severity: SeverityHigh})
	}

	if len(thoughts) < 3 {
		out = append(out, Gap{Kind: GapThoughts, Severity: SeverityMedium})
	}

	if len(tokenPattern.FindAllString(query, -1)) > 15 && len(used) < 10 {
		out = append(out, Gap{Kind: GapComplexity, Severity: SeverityMedium})
	}

	return out
}
