package graph

// traceCutoff bounds simple-path enumeration so Trace cannot blow up
// combinatorially on dense graphs.
const traceCutoff = 10

// reverseImpactTypes are relationships where a consumer pulls from a
// provider: a change to the target impacts the source, so the traversal
// follows incoming edges of these types.
var reverseImpactTypes = map[string]struct{}{
	"reads":      {},
	"imports":    {},
	"depends_on": {},
	"consumes":   {},
	"requires":   {},
}

// forwardImpactTypes are relationships where a provider pushes to a
// consumer: impact flows with the edge, so the traversal follows outgoing
// edges of these types.
var forwardImpactTypes = map[string]struct{}{
	"writes":     {},
	"provides":   {},
	"provisions": {},
	"configures": {},
	"transforms": {},
	"triggers":   {},
	"calls":      {},
}

// Descendants returns all node ids reachable over outgoing edges,
// ignoring relationship semantics. Empty when the start node is absent.
func (g *DependencyGraph) Descendants(nodeId string) map[string]struct{} {
	return g.reach(nodeId, true)
}

// Ancestors returns all node ids that reach this node over incoming edges.
func (g *DependencyGraph) Ancestors(nodeId string) map[string]struct{} {
	return g.reach(nodeId, false)
}

func (g *DependencyGraph) reach(nodeId string, downstream bool) map[string]struct{} {
	result := make(map[string]struct{})
	if !g.HasNode(nodeId) {
		return result
	}

	queue := []string{nodeId}
	visited := map[string]struct{}{nodeId: {}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var next []string
		if downstream {
			for _, edge := range g.OutEdges(current) {
				next = append(next, edge.TargetId)
			}
		} else {
			for _, edge := range g.InEdges(current) {
				next = append(next, edge.SourceId)
			}
		}

		for _, id := range next {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			result[id] = struct{}{}
			queue = append(queue, id)
		}
	}
	return result
}

// ImpactedNodes returns the ids semantically impacted by a change to the
// given node. Unlike Descendants, impact does not always flow in the edge's
// literal direction: pull relationships (reads, imports, depends_on,
// consumes) propagate impact from target back to source, while push
// relationships (writes, provides, provisions, configures, calls) propagate
// with the edge. Relationship types outside both sets, such as contains,
// do not propagate at all.
//
// maxDepth caps the breadth-first frontier; negative means unbounded. The
// start node is excluded from the result.
func (g *DependencyGraph) ImpactedNodes(nodeId string, maxDepth int) map[string]struct{} {
	result := make(map[string]struct{})
	if !g.HasNode(nodeId) {
		return result
	}

	type frontier struct {
		id    string
		depth int
	}

	visited := make(map[string]struct{})
	queue := []frontier{{nodeId, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current.id]; seen {
			continue
		}
		if maxDepth >= 0 && current.depth > maxDepth {
			continue
		}
		visited[current.id] = struct{}{}

		// Pull relationships: whoever reads the current node is impacted.
		for _, edge := range g.InEdges(current.id) {
			if _, ok := reverseImpactTypes[string(edge.Type)]; !ok {
				continue
			}
			if _, seen := visited[edge.SourceId]; !seen {
				queue = append(queue, frontier{edge.SourceId, current.depth + 1})
			}
		}

		// Push relationships: whatever the current node provides is impacted.
		for _, edge := range g.OutEdges(current.id) {
			if _, ok := forwardImpactTypes[string(edge.Type)]; !ok {
				continue
			}
			if _, seen := visited[edge.TargetId]; !seen {
				queue = append(queue, frontier{edge.TargetId, current.depth + 1})
			}
		}
	}

	delete(visited, nodeId)
	for id := range visited {
		result[id] = struct{}{}
	}
	return result
}

// Trace enumerates simple paths from source to target over raw edge
// direction, capped at the trace cutoff depth. Paths are node-id sequences
// including both endpoints.
func (g *DependencyGraph) Trace(sourceId, targetId string) [][]string {
	if !g.HasNode(sourceId) || !g.HasNode(targetId) {
		return nil
	}

	var paths [][]string
	onPath := map[string]struct{}{sourceId: {}}
	path := []string{sourceId}

	var walk func(current string)
	walk = func(current string) {
		if current == targetId {
			found := make([]string, len(path))
			copy(found, path)
			paths = append(paths, found)
			return
		}
		if len(path) > traceCutoff {
			return
		}
		for _, edge := range g.OutEdges(current) {
			next := edge.TargetId
			if _, seen := onPath[next]; seen {
				continue
			}
			onPath[next] = struct{}{}
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
			delete(onPath, next)
		}
	}
	walk(sourceId)
	return paths
}
