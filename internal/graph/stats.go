package graph

import "jnkn/internal/model"

// Stats summarizes graph composition for reporting.
type Stats struct {
	TotalNodes    int            `json:"totalNodes" yaml:"totalNodes"`
	TotalEdges    int            `json:"totalEdges" yaml:"totalEdges"`
	NodesByType   map[string]int `json:"nodesByType" yaml:"nodesByType"`
	EdgesByType   map[string]int `json:"edgesByType" yaml:"edgesByType"`
	IndexedTokens int            `json:"indexedTokens" yaml:"indexedTokens"`
	Orphans       int            `json:"orphans" yaml:"orphans"`
}

// GetStats computes node/edge counts by type, the indexed-token count, and
// the number of orphan nodes (no edges in either direction).
func (g *DependencyGraph) GetStats() *Stats {
	stats := &Stats{
		TotalNodes:    g.NodeCount(),
		TotalEdges:    g.EdgeCount(),
		NodesByType:   make(map[string]int),
		EdgesByType:   make(map[string]int),
		IndexedTokens: g.tokens.TokenCount(),
	}

	for nodeType, bucket := range g.byType {
		if len(bucket) > 0 {
			stats.NodesByType[string(nodeType)] = len(bucket)
		}
	}

	for _, edge := range g.Edges() {
		stats.EdgesByType[string(edge.Type)]++
	}

	for _, node := range g.Nodes() {
		if len(g.OutEdges(node.Id)) == 0 && len(g.InEdges(node.Id)) == 0 {
			stats.Orphans++
		}
	}
	return stats
}

// Snapshot is a serializable view of the full graph, used for export and
// for handing the graph to the storage collaborator in one shot.
type Snapshot struct {
	Nodes []*model.Node `json:"nodes" yaml:"nodes"`
	Edges []*model.Edge `json:"edges" yaml:"edges"`
	Stats *Stats        `json:"stats" yaml:"stats"`
}

// ToSnapshot captures the current nodes, edges, and stats.
func (g *DependencyGraph) ToSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
		Stats: g.GetStats(),
	}
}

// FromSnapshot rebuilds a graph from a snapshot.
func FromSnapshot(snap *Snapshot) *DependencyGraph {
	g := New()
	if snap == nil {
		return g
	}
	for _, node := range snap.Nodes {
		g.AddNode(node)
	}
	for _, edge := range snap.Edges {
		g.AddEdge(edge)
	}
	return g
}
