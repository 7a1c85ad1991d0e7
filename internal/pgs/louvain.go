package pgs

import (
	"math/rand"

	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/types"
)

// graph is an undirected weighted multigraph view over a brain, with
// duplicate edges summed (spec.md §4.6 "Louvain").
type graph struct {
	nodeIndex map[string]int
	nodeIDs   []string
	adjacency []map[int]float64 // adjacency[i][j] = summed edge weight
	degree    []float64         // weighted degree per node
	totalWeight float64         // m, sum of all edge weights (not doubled)
}

func buildGraph(state *types.BrainState) *graph {
	g := &graph{nodeIndex: make(map[string]int, len(state.Nodes))}
	for _, n := range state.Nodes {
		g.nodeIndex[n.ID] = len(g.nodeIDs)
		g.nodeIDs = append(g.nodeIDs, n.ID)
		g.adjacency = append(g.adjacency, make(map[int]float64))
		g.degree = append(g.degree, 0)
	}

	for _, e := range state.Edges {
		si, sok := g.nodeIndex[e.Source]
		ti, tok := g.nodeIndex[e.Target]
		if !sok || !tok || si == ti {
			continue
		}
		w := float64(e.Weight)
		g.adjacency[si][ti] += w
		g.adjacency[ti][si] += w
		g.degree[si] += w
		g.degree[ti] += w
		g.totalWeight += w
	}

	return g
}

// louvain runs single-level modularity optimization, per spec.md §4.6:
// randomized visit order each iteration, MAX_ITERATIONS cap, convergence
// on no moves, and the exact gain formula given in the spec.
func louvain(g *graph, cfg *config.PGSConfig, rng *rand.Rand) [][]int {
	n := len(g.nodeIDs)
	community := make([]int, n)
	commWeight := make([]float64, n) // Σ_tot per community: sum of node degrees in community
	for i := range community {
		community[i] = i
		commWeight[i] = g.degree[i]
	}

	m2 := 2 * g.totalWeight
	if m2 == 0 {
		return singletonCommunities(n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

		moved := false
		for _, i := range order {
			currentComm := community[i]

			// Remove i from its current community for gain accounting.
			commWeight[currentComm] -= g.degree[i]

			neighborWeights := neighborCommunityWeights(g, community, i)

			bestComm := currentComm
			bestGain := 0.0

			for comm, kIC := range neighborWeights {
				if comm == currentComm {
					continue
				}
				gain := modularityGain(kIC, neighborWeights[currentComm], g.degree[i], commWeight[currentComm], commWeight[comm], m2)
				if gain > bestGain+cfg.ModularityGainEps {
					bestGain = gain
					bestComm = comm
				}
			}

			community[i] = bestComm
			commWeight[bestComm] += g.degree[i]
			if bestComm != currentComm {
				moved = true
			}
		}

		if !moved {
			break
		}
	}

	return groupByCommunity(community)
}

func singletonCommunities(n int) [][]int {
	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}
	return groups
}

// neighborCommunityWeights sums edge weight from i into each community its
// neighbors belong to (k_{i,C}), including i's own current community.
func neighborCommunityWeights(g *graph, community []int, i int) map[int]float64 {
	weights := make(map[int]float64)
	weights[community[i]] += 0
	for j, w := range g.adjacency[i] {
		weights[community[j]] += w
	}
	return weights
}

// modularityGain implements spec.md §4.6's formula: for node i moving from
// community C (weight-sum wC) to C' (weight-sum wC'), gain =
// (wC' - wC) - (k_i*(ΣC' - ΣC + k_i)) / (2m), where weightToTarget and
// weightToCurrent are i's edge weight into C' and C respectively.
func modularityGain(weightToTarget, weightToCurrent, kI, sigmaC, sigmaC1, m2 float64) float64 {
	return (weightToTarget - weightToCurrent) - (kI*(sigmaC1-sigmaC+kI))/m2
}

func groupByCommunity(community []int) [][]int {
	groups := make(map[int][]int)
	for node, comm := range community {
		groups[comm] = append(groups[comm], node)
	}
	out := make([][]int, 0, len(groups))
	for _, members := range groups {
		out = append(out, members)
	}
	return out
}
