package graph

import (
	"fmt"
	"sort"
	"strings"
)

// RankOptions configures personalized-PageRank relevance ranking.
type RankOptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 20)
	MaxIterations int

	// Tolerance for convergence detection (default: 1e-6)
	Tolerance float64

	// TopK is the number of top results to return (default: 20)
	TopK int

	// IncludePaths enables backtracking to explain why nodes were reached
	IncludePaths bool
}

// DefaultRankOptions returns sensible defaults.
func DefaultRankOptions() RankOptions {
	return RankOptions{
		Damping:       0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		TopK:          20,
		IncludePaths:  true,
	}
}

// RankedNode is one ranked artifact.
type RankedNode struct {
	NodeId string   `json:"nodeId"`
	Score  float64  `json:"score"`
	Path   []string `json:"path,omitempty"` // chain from a seed to this node
}

// RankOutput contains the full ranking result.
type RankOutput struct {
	Results    []RankedNode `json:"results"`
	Iterations int          `json:"iterations"`
	Converged  bool         `json:"converged"`
	SeedIds    []string     `json:"seedIds"`
	TotalNodes int          `json:"totalNodes"`
	TotalEdges int          `json:"totalEdges"`
}

type rankEntry struct {
	target int
	weight float64
}

// Rank computes personalized PageRank seeded at the given node ids and
// returns the artifacts most related to them. Probability mass flows in both
// edge directions, weighted by edge confidence, so a provider and its
// consumers rank each other highly regardless of edge orientation.
func (g *DependencyGraph) Rank(seeds []string, opts RankOptions) (*RankOutput, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed nodes provided")
	}

	if g.NodeCount() == 0 {
		return &RankOutput{Results: []RankedNode{}, SeedIds: seeds}, nil
	}

	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 20
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}
	if opts.TopK <= 0 {
		opts.TopK = 20
	}

	seedSlots := make([]int, 0, len(seeds))
	validSeeds := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if idx, ok := g.idToIdx[s]; ok {
			seedSlots = append(seedSlots, idx)
			validSeeds = append(validSeeds, s)
		}
	}
	if len(seedSlots) == 0 {
		return &RankOutput{
			Results:    []RankedNode{},
			SeedIds:    seeds,
			TotalNodes: g.NodeCount(),
			TotalEdges: g.EdgeCount(),
		}, nil
	}

	// Symmetric adjacency over arena slots, weighted by confidence.
	slots := len(g.nodes)
	adj := make([][]rankEntry, slots)
	for idx, edges := range g.outEdges {
		for _, edge := range edges {
			tgt, ok := g.idToIdx[edge.TargetId]
			if !ok || edge.Confidence <= 0 {
				continue
			}
			adj[idx] = append(adj[idx], rankEntry{target: tgt, weight: edge.Confidence})
			adj[tgt] = append(adj[tgt], rankEntry{target: idx, weight: edge.Confidence})
		}
	}

	// Teleport vector, uniform over seeds.
	teleport := make([]float64, slots)
	seedWeight := 1.0 / float64(len(seedSlots))
	for _, idx := range seedSlots {
		teleport[idx] = seedWeight
	}

	scores := make([]float64, slots)
	copy(scores, teleport)

	degree := make([]float64, slots)
	for i, entries := range adj {
		for _, e := range entries {
			degree[i] += e.weight
		}
	}

	// Power iteration.
	newScores := make([]float64, slots)
	var iterations int
	var converged bool

	for iter := 0; iter < opts.MaxIterations; iter++ {
		iterations = iter + 1

		for i := range newScores {
			newScores[i] = 0
		}

		for i, entries := range adj {
			if len(entries) == 0 || degree[i] == 0 {
				continue
			}
			contrib := scores[i] / degree[i]
			for _, e := range entries {
				newScores[e.target] += contrib * e.weight
			}
		}

		maxDiff := 0.0
		for i := range newScores {
			newScores[i] = opts.Damping*newScores[i] + (1-opts.Damping)*teleport[i]
			diff := newScores[i] - scores[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	type scoredSlot struct {
		idx   int
		score float64
	}
	ranked := make([]scoredSlot, 0, slots)
	for i, s := range scores {
		if s > 0 && g.nodes[i] != nil {
			ranked = append(ranked, scoredSlot{idx: i, score: s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return g.idxToId[ranked[i].idx] < g.idxToId[ranked[j].idx]
	})
	if len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}

	seedSet := make(map[int]bool, len(seedSlots))
	for _, idx := range seedSlots {
		seedSet[idx] = true
	}

	results := make([]RankedNode, len(ranked))
	for i, sn := range ranked {
		result := RankedNode{NodeId: g.idxToId[sn.idx], Score: sn.score}
		if opts.IncludePaths && !seedSet[sn.idx] {
			result.Path = g.backtrack(sn.idx, adj, seedSet, 5)
		}
		results[i] = result
	}

	return &RankOutput{
		Results:    results,
		Iterations: iterations,
		Converged:  converged,
		SeedIds:    validSeeds,
		TotalNodes: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
	}, nil
}

// backtrack finds a chain from the target back to any seed, greedily
// following the heaviest adjacent edge.
func (g *DependencyGraph) backtrack(target int, adj [][]rankEntry, seedSet map[int]bool, maxDepth int) []string {
	path := []string{g.idxToId[target]}
	current := target
	visited := map[int]bool{target: true}

	for depth := 0; depth < maxDepth; depth++ {
		bestPrev := -1
		bestWeight := 0.0
		for _, e := range adj[current] {
			if !visited[e.target] && e.weight > bestWeight {
				bestWeight = e.weight
				bestPrev = e.target
			}
		}
		if bestPrev < 0 {
			break
		}

		path = append(path, g.idxToId[bestPrev])
		visited[bestPrev] = true
		if seedSet[bestPrev] {
			break
		}
		current = bestPrev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FilterRanked filters ranked results by a predicate.
func FilterRanked(results []RankedNode, predicate func(RankedNode) bool) []RankedNode {
	filtered := make([]RankedNode, 0, len(results))
	for _, r := range results {
		if predicate(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterRankedByPrefix returns results whose node id has the given prefix,
// letting callers restrict a ranking to one artifact domain.
func FilterRankedByPrefix(results []RankedNode, prefix string) []RankedNode {
	return FilterRanked(results, func(r RankedNode) bool {
		return strings.HasPrefix(r.NodeId, prefix)
	})
}

// FilterRankedByMinScore returns results with score >= minScore.
func FilterRankedByMinScore(results []RankedNode, minScore float64) []RankedNode {
	return FilterRanked(results, func(r RankedNode) bool {
		return r.Score >= minScore
	})
}
