package model

import (
	"time"
)

// NodeType categorizes nodes in the dependency graph
type NodeType string

const (
	// NodeCodeFile represents a source file
	NodeCodeFile NodeType = "code_file"
	// NodeCodeEntity represents a function, class, or other named code construct
	NodeCodeEntity NodeType = "code_entity"
	// NodeInfraResource represents a provisioned infrastructure resource
	NodeInfraResource NodeType = "infra_resource"
	// NodeInfraModule represents a grouping of infrastructure resources
	NodeInfraModule NodeType = "infra_module"
	// NodeDataAsset represents a table, dataset, or other data artifact
	NodeDataAsset NodeType = "data_asset"
	// NodeEnvVar represents an environment variable read by code
	NodeEnvVar NodeType = "env_var"
	// NodeConfigKey represents a configuration key or infrastructure output
	NodeConfigKey NodeType = "config_key"
	// NodeSecret represents a secret reference
	NodeSecret NodeType = "secret"
	// NodeJob represents a scheduled or pipeline job
	NodeJob NodeType = "job"
	// NodeUnknown is used when an extractor cannot classify an artifact
	NodeUnknown NodeType = "unknown"
)

// RelationshipType categorizes edges between nodes
type RelationshipType string

const (
	RelContains   RelationshipType = "contains"
	RelImports    RelationshipType = "imports"
	RelExtends    RelationshipType = "extends"
	RelCalls      RelationshipType = "calls"
	RelReads      RelationshipType = "reads"
	RelWrites     RelationshipType = "writes"
	RelProvisions RelationshipType = "provisions"
	RelConfigures RelationshipType = "configures"
	RelDependsOn  RelationshipType = "depends_on"
	RelProvides   RelationshipType = "provides"
	RelConsumes   RelationshipType = "consumes"
	RelTransforms RelationshipType = "transforms"
)

// MatchStrategy tags how a stitched edge was discovered.
// Edges produced by direct parsing carry no strategy.
type MatchStrategy string

const (
	MatchExact        MatchStrategy = "exact"
	MatchNormalized   MatchStrategy = "normalized"
	MatchTokenOverlap MatchStrategy = "token_overlap"
	MatchSuffix       MatchStrategy = "suffix"
	MatchPrefix       MatchStrategy = "prefix"
	MatchContains     MatchStrategy = "contains"
	MatchSemantic     MatchStrategy = "semantic"
)

// Node is the universal unit of analysis: a file, resource, env var,
// data asset, or any other artifact discovered by an extractor.
type Node struct {
	Id        string            `json:"id"`
	Name      string            `json:"name"`
	Type      NodeType          `json:"type"`
	Path      string            `json:"path,omitempty"`
	Language  string            `json:"language,omitempty"`
	FileHash  string            `json:"fileHash,omitempty"`
	Tokens    []string          `json:"tokens"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewNode creates a node with tokens derived from the name.
// Tokenization is reproducible from the name alone, so extractors that
// omit tokens and matchers that re-derive them always agree.
func NewNode(id, name string, nodeType NodeType) *Node {
	return &Node{
		Id:        id,
		Name:      name,
		Type:      nodeType,
		Tokens:    Tokenize(name),
		CreatedAt: time.Now().UTC(),
	}
}

// EffectiveTokens returns the node's tokens, deriving them from the name
// when an extractor supplied none.
func (n *Node) EffectiveTokens() []string {
	if len(n.Tokens) > 0 {
		return n.Tokens
	}
	return Tokenize(n.Name)
}

// WithMetadata returns a copy of the node with the given metadata merged in.
func (n *Node) WithMetadata(kv map[string]string) *Node {
	copied := *n
	copied.Metadata = make(map[string]string, len(n.Metadata)+len(kv))
	for k, v := range n.Metadata {
		copied.Metadata[k] = v
	}
	for k, v := range kv {
		copied.Metadata[k] = v
	}
	return &copied
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	SourceId      string            `json:"sourceId"`
	TargetId      string            `json:"targetId"`
	Type          RelationshipType  `json:"type"`
	Confidence    float64           `json:"confidence"`
	MatchStrategy MatchStrategy     `json:"matchStrategy,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// NewEdge creates a parsed (non-stitched) edge with full confidence.
func NewEdge(sourceId, targetId string, relType RelationshipType) *Edge {
	return &Edge{
		SourceId:   sourceId,
		TargetId:   targetId,
		Type:       relType,
		Confidence: 1.0,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsStitched reports whether this edge was inferred by fuzzy matching
// rather than emitted by a parser.
func (e *Edge) IsStitched() bool {
	return e.MatchStrategy != ""
}

// IsHighConfidence reports whether the edge meets the given threshold.
func (e *Edge) IsHighConfidence(threshold float64) bool {
	return e.Confidence >= threshold
}

// RuleName returns the stitching rule that created this edge, if any.
func (e *Edge) RuleName() string {
	return e.Metadata["rule"]
}

// Explanation returns the human-readable match explanation, if any.
func (e *Edge) Explanation() string {
	return e.Metadata["explanation"]
}
