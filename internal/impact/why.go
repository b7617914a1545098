package impact

import (
	"jnkn/internal/model"
)

// EdgeExplanation describes one relationship touching a node, with the
// evidence that produced it.
type EdgeExplanation struct {
	SourceId      string            `json:"sourceId"`
	TargetId      string            `json:"targetId"`
	Type          string            `json:"type"`
	Confidence    float64           `json:"confidence"`
	MatchStrategy string            `json:"matchStrategy,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// WhyReport explains why a node sits where it does in the graph: its direct
// providers and dependents with confidences.
type WhyReport struct {
	NodeId   string            `json:"nodeId"`
	Node     *model.Node       `json:"node,omitempty"`
	Incoming []EdgeExplanation `json:"incoming"`
	Outgoing []EdgeExplanation `json:"outgoing"`
}

// Why resolves the input and reports the node's direct edges. Returns nil
// when nothing resolves.
func (a *Analyzer) Why(input string) *WhyReport {
	nodeId := a.Resolve(input)
	if nodeId == "" {
		return nil
	}

	report := &WhyReport{
		NodeId:   nodeId,
		Node:     a.graph.GetNode(nodeId),
		Incoming: []EdgeExplanation{},
		Outgoing: []EdgeExplanation{},
	}
	for _, edge := range a.graph.InEdges(nodeId) {
		report.Incoming = append(report.Incoming, explainEdge(edge))
	}
	for _, edge := range a.graph.OutEdges(nodeId) {
		report.Outgoing = append(report.Outgoing, explainEdge(edge))
	}
	return report
}

func explainEdge(edge *model.Edge) EdgeExplanation {
	return EdgeExplanation{
		SourceId:      edge.SourceId,
		TargetId:      edge.TargetId,
		Type:          string(edge.Type),
		Confidence:    edge.Confidence,
		MatchStrategy: string(edge.MatchStrategy),
		Metadata:      edge.Metadata,
	}
}
