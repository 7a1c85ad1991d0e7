package ranker

import (
	"sort"
	"strings"

	"github.com/JaimeStill/brainquery/internal/types"
)

// ThoughtResult is a single scored thought.
type ThoughtResult struct {
	Thought *types.Thought
	Score   float64
}

// RankThoughts scores thoughts with the same hybrid scheme as Rank, with
// thought-specific keyword weights and a surprise multiplier (spec.md
// §4.3 "Thought ranker").
func (r *Ranker) RankThoughts(thoughts []*types.Thought, query string, queryVec []float32, thoughtVec func(*types.Thought) []float32, useSemantic bool) []ThoughtResult {
	tokens := queryTokens(query)
	queryLower := strings.ToLower(query)

	results := make([]ThoughtResult, 0, len(thoughts))
	for _, t := range thoughts {
		var vec []float32
		if thoughtVec != nil {
			vec = thoughtVec(t)
		}

		score := r.scoreThought(t, queryLower, tokens, queryVec, vec, useSemantic)
		results = append(results, ThoughtResult{Thought: t, Score: score})
	}

	sortThoughts(results)
	return results
}

func (r *Ranker) scoreThought(t *types.Thought, queryLower string, tokens []string, queryVec, thoughtVec []float32, useSemantic bool) float64 {
	bodyLower := strings.ToLower(t.Content)
	goalLower := strings.ToLower(t.Goal)

	semantic := 0.0
	hasVec := useSemantic && len(queryVec) > 0 && len(thoughtVec) == len(queryVec)
	if hasVec {
		semantic = 100 * cosine(queryVec, thoughtVec)
	}

	keyword := 0.0
	if queryLower != "" && strings.Contains(bodyLower, queryLower) {
		keyword += 30
	}
	for i, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if strings.Contains(bodyLower, tok) {
			keyword += 15 * float64(i+1) / float64(len(tokens))
		}
		if strings.Contains(goalLower, tok) {
			keyword += 10 * float64(i+1) / float64(len(tokens))
		}
	}
	if keyword > 100 {
		keyword = 100
	}

	var base float64
	if hasVec {
		base = 0.7*semantic + 0.3*keyword
	} else {
		base = keyword
	}

	surprise := 0.0
	if t.Surprise != nil {
		surprise = float64(*t.Surprise)
	}
	return base * (1 + surprise)
}

func sortThoughts(results []ThoughtResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Thought.Cycle < results[j].Thought.Cycle
	})
}
