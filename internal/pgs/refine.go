package pgs

import "github.com/JaimeStill/brainquery/internal/config"

// mergeSmall absorbs any community smaller than MinCommunitySize into its
// most-strongly-connected neighbor, restarting the scan after each merge
// (spec.md §4.6 "Merge small").
func mergeSmall(g *graph, groups [][]int, cfg *config.PGSConfig) [][]int {
	owner := make(map[int]int, len(g.nodeIDs))
	for i, members := range groups {
		for _, m := range members {
			owner[m] = i
		}
	}

	for {
		mergedAny := false

		for i, members := range groups {
			if members == nil || len(members) >= cfg.MinCommunitySize {
				continue
			}

			target := mostConnectedNeighbor(g, groups, owner, i)
			if target < 0 {
				continue
			}

			groups[target] = append(groups[target], members...)
			for _, m := range members {
				owner[m] = target
			}
			groups[i] = nil
			mergedAny = true
			break
		}

		if !mergedAny {
			break
		}
	}

	return compact(groups)
}

// mostConnectedNeighbor finds the other community with the highest summed
// inter-community edge weight to groups[idx].
func mostConnectedNeighbor(g *graph, groups [][]int, owner map[int]int, idx int) int {
	weights := make(map[int]float64)
	for _, node := range groups[idx] {
		for neighbor, w := range g.adjacency[node] {
			comm, ok := owner[neighbor]
			if !ok || comm == idx {
				continue
			}
			weights[comm] += w
		}
	}

	best, bestWeight := -1, -1.0
	for comm, w := range weights {
		if w > bestWeight {
			best, bestWeight = comm, w
		}
	}
	return best
}

func compact(groups [][]int) [][]int {
	var out [][]int
	for _, g := range groups {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

// splitOversize bisects any community larger than TargetPartitionMax using
// a balanced greedy partition: seed two groups with the first and middle
// member, then assign remaining members to whichever group has higher
// edge-weight affinity minus a 0.1*size balancing penalty (spec.md §4.6
// "Split oversize").
func splitOversize(g *graph, groups [][]int, cfg *config.PGSConfig) [][]int {
	var out [][]int

	for _, members := range groups {
		if len(members) <= cfg.TargetPartitionMax {
			out = append(out, members)
			continue
		}
		out = append(out, bisect(g, members, cfg)...)
	}

	return out
}

func bisect(g *graph, members []int, cfg *config.PGSConfig) [][]int {
	if len(members) < 2 {
		return [][]int{members}
	}

	mid := len(members) / 2
	groupA := []int{members[0]}
	groupB := []int{members[mid]}
	seeded := map[int]bool{members[0]: true, members[mid]: true}

	memberSet := make(map[int]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	for _, m := range members {
		if seeded[m] {
			continue
		}

		affinityA := affinityWithin(g, m, groupA, memberSet)
		affinityB := affinityWithin(g, m, groupB, memberSet)

		scoreA := affinityA - 0.1*float64(len(groupA))
		scoreB := affinityB - 0.1*float64(len(groupB))

		if scoreA >= scoreB {
			groupA = append(groupA, m)
		} else {
			groupB = append(groupB, m)
		}
	}

	result := [][]int{groupA, groupB}

	// Recurse in case a half still exceeds the target.
	var final [][]int
	for _, grp := range result {
		if len(grp) > cfg.TargetPartitionMax {
			final = append(final, bisect(g, grp, cfg)...)
		} else {
			final = append(final, grp)
		}
	}
	return final
}

func affinityWithin(g *graph, node int, group []int, memberSet map[int]bool) float64 {
	total := 0.0
	groupSet := make(map[int]bool, len(group))
	for _, m := range group {
		groupSet[m] = true
	}
	for neighbor, w := range g.adjacency[node] {
		if !memberSet[neighbor] {
			continue
		}
		if groupSet[neighbor] {
			total += w
		}
	}
	return total
}
