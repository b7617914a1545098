package graph

import (
	"testing"

	"jnkn/internal/model"
)

func rankGraph() *DependencyGraph {
	g := New()
	// db_host provides DB_HOST; app reads DB_HOST and writes orders.
	// cache_url is disconnected from the db cluster.
	for _, n := range []*model.Node{
		model.NewNode("infra:output:db_host", "db_host", model.NodeInfraResource),
		model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar),
		model.NewNode("file://src/app.py", "app.py", model.NodeCodeFile),
		model.NewNode("data:orders", "orders", model.NodeDataAsset),
		model.NewNode("env:CACHE_URL", "CACHE_URL", model.NodeEnvVar),
	} {
		g.AddNode(n)
	}
	g.AddEdge(model.NewEdge("infra:output:db_host", "env:DB_HOST", model.RelProvides))
	g.AddEdge(model.NewEdge("file://src/app.py", "env:DB_HOST", model.RelReads))
	g.AddEdge(model.NewEdge("file://src/app.py", "data:orders", model.RelWrites))
	return g
}

func TestRankBasic(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"env:DB_HOST"}, DefaultRankOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(out.Results) == 0 {
		t.Fatal("expected results")
	}
	if out.Results[0].NodeId != "env:DB_HOST" {
		t.Errorf("seed should rank first, got %s", out.Results[0].NodeId)
	}

	scores := make(map[string]float64, len(out.Results))
	for _, r := range out.Results {
		scores[r.NodeId] = r.Score
	}
	if scores["infra:output:db_host"] <= scores["env:CACHE_URL"] {
		t.Errorf("direct neighbor should outrank disconnected node: %v", scores)
	}
}

func TestRankConvergence(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"env:DB_HOST"}, RankOptions{MaxIterations: 100})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !out.Converged {
		t.Errorf("expected convergence within %d iterations", out.Iterations)
	}
}

func TestRankMultipleSeeds(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"env:DB_HOST", "data:orders"}, DefaultRankOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(out.SeedIds) != 2 {
		t.Errorf("expected 2 valid seeds, got %v", out.SeedIds)
	}

	// app.py touches both seeds and should score above the cache.
	scores := make(map[string]float64, len(out.Results))
	for _, r := range out.Results {
		scores[r.NodeId] = r.Score
	}
	if scores["file://src/app.py"] <= scores["env:CACHE_URL"] {
		t.Errorf("shared neighbor should outrank disconnected node: %v", scores)
	}
}

func TestRankEmptySeeds(t *testing.T) {
	g := rankGraph()
	if _, err := g.Rank(nil, DefaultRankOptions()); err == nil {
		t.Error("expected error for empty seeds")
	}
}

func TestRankUnknownSeeds(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"env:NOPE"}, DefaultRankOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(out.Results) != 0 {
		t.Errorf("expected no results for unknown seed, got %d", len(out.Results))
	}
	if out.TotalNodes != 5 {
		t.Errorf("TotalNodes = %d, want 5", out.TotalNodes)
	}
}

func TestRankPathBacktracking(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"infra:output:db_host"}, DefaultRankOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	for _, r := range out.Results {
		if r.NodeId == "env:DB_HOST" {
			if len(r.Path) < 2 {
				t.Fatalf("expected a path for %s, got %v", r.NodeId, r.Path)
			}
			if r.Path[0] != "infra:output:db_host" {
				t.Errorf("path should start at seed: %v", r.Path)
			}
			if r.Path[len(r.Path)-1] != "env:DB_HOST" {
				t.Errorf("path should end at node: %v", r.Path)
			}
			return
		}
	}
	t.Error("env:DB_HOST missing from results")
}

func TestRankTopK(t *testing.T) {
	g := rankGraph()

	out, err := g.Rank([]string{"env:DB_HOST"}, RankOptions{TopK: 2})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(out.Results) > 2 {
		t.Errorf("expected at most 2 results, got %d", len(out.Results))
	}
}

func TestFilterRanked(t *testing.T) {
	results := []RankedNode{
		{NodeId: "env:DB_HOST", Score: 0.5},
		{NodeId: "infra:output:db_host", Score: 0.3},
		{NodeId: "env:CACHE_URL", Score: 0.01},
	}

	envs := FilterRankedByPrefix(results, "env:")
	if len(envs) != 2 {
		t.Errorf("expected 2 env results, got %d", len(envs))
	}

	strong := FilterRankedByMinScore(results, 0.1)
	if len(strong) != 2 {
		t.Errorf("expected 2 results above 0.1, got %d", len(strong))
	}
}
