package graph

import (
	"sort"
	"strings"

	"jnkn/internal/model"
)

// DependencyGraph is an arena-indexed directed multigraph over nodes and
// edges. Node payloads live in a dense slice; a bimap between external string
// ids and arena slots keeps lookups O(1) and lets a re-added node replace its
// payload in place, so edges referencing the slot stay valid.
//
// The graph is not internally synchronized. Callers must serialize mutation;
// read-only queries may run concurrently with each other but not with writes.
type DependencyGraph struct {
	nodes    []*model.Node
	free     []int
	idToIdx  map[string]int
	idxToId  map[int]string
	byType   map[model.NodeType]map[string]struct{}
	tokens   *TokenIndex
	outEdges map[int][]*model.Edge
	inEdges  map[int][]*model.Edge
	numEdges int
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		idToIdx:  make(map[string]int),
		idxToId:  make(map[int]string),
		byType:   make(map[model.NodeType]map[string]struct{}),
		tokens:   NewTokenIndex(),
		outEdges: make(map[int][]*model.Edge),
		inEdges:  make(map[int][]*model.Edge),
	}
}

// AddNode adds a node or, when the id already exists, replaces its payload
// at the same arena slot. Replacement re-buckets the secondary indices: the
// old type and token entries are removed before the new ones are added.
func (g *DependencyGraph) AddNode(node *model.Node) {
	if node == nil || node.Id == "" {
		return
	}

	if idx, ok := g.idToIdx[node.Id]; ok {
		old := g.nodes[idx]
		if bucket := g.byType[old.Type]; bucket != nil {
			delete(bucket, old.Id)
		}
		g.tokens.Remove(old.Id)
		g.nodes[idx] = node
	} else {
		idx := g.allocSlot(node)
		g.idToIdx[node.Id] = idx
		g.idxToId[idx] = node.Id
	}

	if g.byType[node.Type] == nil {
		g.byType[node.Type] = make(map[string]struct{})
	}
	g.byType[node.Type][node.Id] = struct{}{}

	if tokens := node.EffectiveTokens(); len(tokens) > 0 {
		g.tokens.Add(node.Id, tokens)
	}
}

func (g *DependencyGraph) allocSlot(node *model.Node) int {
	if n := len(g.free); n > 0 {
		idx := g.free[n-1]
		g.free = g.free[:n-1]
		g.nodes[idx] = node
		return idx
	}
	g.nodes = append(g.nodes, node)
	return len(g.nodes) - 1
}

// RemoveNode removes a node and all incident edges. No-op if absent.
func (g *DependencyGraph) RemoveNode(nodeId string) {
	idx, ok := g.idToIdx[nodeId]
	if !ok {
		return
	}
	node := g.nodes[idx]

	for _, edge := range g.outEdges[idx] {
		if tgtIdx, ok := g.idToIdx[edge.TargetId]; ok {
			g.inEdges[tgtIdx] = dropEdges(g.inEdges[tgtIdx], nodeId, edge.TargetId)
		}
	}
	g.numEdges -= len(g.outEdges[idx])
	delete(g.outEdges, idx)

	for _, edge := range g.inEdges[idx] {
		if srcIdx, ok := g.idToIdx[edge.SourceId]; ok {
			removed := len(g.outEdges[srcIdx])
			g.outEdges[srcIdx] = dropEdges(g.outEdges[srcIdx], edge.SourceId, nodeId)
			g.numEdges -= removed - len(g.outEdges[srcIdx])
		}
	}
	delete(g.inEdges, idx)

	if bucket := g.byType[node.Type]; bucket != nil {
		delete(bucket, nodeId)
	}
	g.tokens.Remove(nodeId)

	g.nodes[idx] = nil
	g.free = append(g.free, idx)
	delete(g.idToIdx, nodeId)
	delete(g.idxToId, idx)
}

func dropEdges(edges []*model.Edge, sourceId, targetId string) []*model.Edge {
	kept := edges[:0]
	for _, e := range edges {
		if e.SourceId == sourceId && e.TargetId == targetId {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// AddEdge inserts a directed edge. Both endpoints must already exist;
// otherwise the call is a silent no-op so edges are never half-created.
// Parallel edges between the same pair are permitted.
func (g *DependencyGraph) AddEdge(edge *model.Edge) {
	if edge == nil {
		return
	}
	srcIdx, srcOk := g.idToIdx[edge.SourceId]
	tgtIdx, tgtOk := g.idToIdx[edge.TargetId]
	if !srcOk || !tgtOk {
		return
	}

	g.outEdges[srcIdx] = append(g.outEdges[srcIdx], edge)
	g.inEdges[tgtIdx] = append(g.inEdges[tgtIdx], edge)
	g.numEdges++
}

// GetNode retrieves a node by id, or nil when absent.
func (g *DependencyGraph) GetNode(nodeId string) *model.Node {
	idx, ok := g.idToIdx[nodeId]
	if !ok {
		return nil
	}
	return g.nodes[idx]
}

// HasNode reports whether a node exists.
func (g *DependencyGraph) HasNode(nodeId string) bool {
	_, ok := g.idToIdx[nodeId]
	return ok
}

// HasEdge reports whether at least one edge runs from source to target.
func (g *DependencyGraph) HasEdge(sourceId, targetId string) bool {
	srcIdx, ok := g.idToIdx[sourceId]
	if !ok {
		return false
	}
	for _, edge := range g.outEdges[srcIdx] {
		if edge.TargetId == targetId {
			return true
		}
	}
	return false
}

// GetNodesByType returns all nodes of a type, ordered by id for determinism.
func (g *DependencyGraph) GetNodesByType(nodeType model.NodeType) []*model.Node {
	bucket := g.byType[nodeType]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		if node := g.GetNode(id); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// FindNodes returns ids of nodes whose id or name contains the pattern,
// case-insensitively. Used as the last rung of artifact resolution.
func (g *DependencyGraph) FindNodes(pattern string) []string {
	patternLower := strings.ToLower(pattern)
	var results []string
	for _, node := range g.Nodes() {
		if strings.Contains(strings.ToLower(node.Id), patternLower) ||
			strings.Contains(strings.ToLower(node.Name), patternLower) {
			results = append(results, node.Id)
		}
	}
	sort.Strings(results)
	return results
}

// FindNodesByTokens finds nodes via the inverted index. With matchAll set,
// a node must carry every token; otherwise any token suffices.
func (g *DependencyGraph) FindNodesByTokens(tokens []string, matchAll bool) []*model.Node {
	var ids map[string]struct{}
	if matchAll {
		ids = g.tokens.FindByAll(tokens)
	} else {
		ids = g.tokens.FindByAny(tokens)
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	nodes := make([]*model.Node, 0, len(sorted))
	for _, id := range sorted {
		if node := g.GetNode(id); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// OutEdges returns the outgoing edges of a node. Empty when absent.
func (g *DependencyGraph) OutEdges(nodeId string) []*model.Edge {
	idx, ok := g.idToIdx[nodeId]
	if !ok {
		return nil
	}
	return g.outEdges[idx]
}

// InEdges returns the incoming edges of a node. Empty when absent.
func (g *DependencyGraph) InEdges(nodeId string) []*model.Edge {
	idx, ok := g.idToIdx[nodeId]
	if !ok {
		return nil
	}
	return g.inEdges[idx]
}

// Nodes returns all nodes in arena order.
func (g *DependencyGraph) Nodes() []*model.Node {
	nodes := make([]*model.Node, 0, len(g.idToIdx))
	for _, node := range g.nodes {
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Edges returns all edges.
func (g *DependencyGraph) Edges() []*model.Edge {
	edges := make([]*model.Edge, 0, g.numEdges)
	for _, node := range g.nodes {
		if node == nil {
			continue
		}
		idx := g.idToIdx[node.Id]
		edges = append(edges, g.outEdges[idx]...)
	}
	return edges
}

// NodeCount returns the number of nodes.
func (g *DependencyGraph) NodeCount() int {
	return len(g.idToIdx)
}

// EdgeCount returns the number of edges.
func (g *DependencyGraph) EdgeCount() int {
	return g.numEdges
}

// Load merges an ordered record stream from an extractor into the graph.
// Edges referencing ids that never arrived are dropped by AddEdge's
// endpoint check, matching the "never half-created" contract.
func (g *DependencyGraph) Load(records []model.Record) {
	for _, record := range records {
		switch record.Kind {
		case model.RecordNode:
			g.AddNode(record.Node)
		case model.RecordEdge:
			g.AddEdge(record.Edge)
		}
	}
}

// Clear resets the graph to empty.
func (g *DependencyGraph) Clear() {
	g.nodes = nil
	g.free = nil
	g.idToIdx = make(map[string]int)
	g.idxToId = make(map[int]string)
	g.byType = make(map[model.NodeType]map[string]struct{})
	g.tokens = NewTokenIndex()
	g.outEdges = make(map[int][]*model.Edge)
	g.inEdges = make(map[int][]*model.Edge)
	g.numEdges = 0
}

// TokenIndex exposes the owned token index for read-only consultation.
func (g *DependencyGraph) TokenIndex() *TokenIndex {
	return g.tokens
}
