package contextbuilder

import (
	"sort"

	"github.com/JaimeStill/brainquery/internal/ranker"
)

// sourceDiverseSample groups direct hits by their first source run and
// round-robins across sources taking each one's next-best-scored node
// until limit is reached, then re-sorts the selection by score for
// presentation (spec.md §4.4 "Source-diverse sampling").
func sourceDiverseSample(results []ranker.Result, limit int) []ranker.Result {
	if len(results) <= limit {
		out := append([]ranker.Result(nil), results...)
		sortByScoreDesc(out)
		return out
	}

	bySource := make(map[string][]ranker.Result)
	var order []string
	for _, r := range results {
		key := "solo"
		if len(r.Node.SourceRuns) > 0 {
			key = r.Node.SourceRuns[0]
		}
		if _, seen := bySource[key]; !seen {
			order = append(order, key)
		}
		bySource[key] = append(bySource[key], r)
	}

	var selected []ranker.Result
	for len(selected) < limit {
		progressed := false
		for _, src := range order {
			if len(selected) >= limit {
				break
			}
			queue := bySource[src]
			if len(queue) == 0 {
				continue
			}
			selected = append(selected, queue[0])
			bySource[src] = queue[1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}

	sortByScoreDesc(selected)
	return selected
}

func sortByScoreDesc(results []ranker.Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
