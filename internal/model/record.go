package model

// RecordKind discriminates the Record variant.
type RecordKind int

const (
	// RecordNode marks a record carrying a node
	RecordNode RecordKind = iota
	// RecordEdge marks a record carrying an edge
	RecordEdge
)

// Record is the tagged variant emitted by extractors: either a node or an
// edge, never both. Extractors stay polymorphic only over "produces a stream
// of records"; the graph consumes them in order, so a file's own node can
// precede the entities and edges it contains.
type Record struct {
	Kind RecordKind
	Node *Node
	Edge *Edge
}

// NodeRecord wraps a node as a record.
func NodeRecord(n *Node) Record {
	return Record{Kind: RecordNode, Node: n}
}

// EdgeRecord wraps an edge as a record.
func EdgeRecord(e *Edge) Record {
	return Record{Kind: RecordEdge, Edge: e}
}
