package model

import "time"

// MatchResult is the outcome of a single stitching match attempt between a
// provider (source) and consumer (target) node.
type MatchResult struct {
	SourceNode    string
	TargetNode    string
	Strategy      MatchStrategy
	Confidence    float64
	MatchedTokens []string
	Explanation   string
}

// ToEdge converts the match into a stitched edge carrying the rule name,
// matched tokens, and explanation in its metadata.
func (m *MatchResult) ToEdge(relType RelationshipType, ruleName string) *Edge {
	return &Edge{
		SourceId:      m.SourceNode,
		TargetId:      m.TargetNode,
		Type:          relType,
		Confidence:    m.Confidence,
		MatchStrategy: m.Strategy,
		Metadata: map[string]string{
			"rule":           ruleName,
			"matched_tokens": joinTokens(m.MatchedTokens),
			"explanation":    m.Explanation,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// IsBetterThan compares two match results; higher confidence wins, with
// matched-token count as the tie-breaker.
func (m *MatchResult) IsBetterThan(other *MatchResult) bool {
	if other == nil {
		return true
	}
	if m.Confidence != other.Confidence {
		return m.Confidence > other.Confidence
	}
	return len(m.MatchedTokens) > len(other.MatchedTokens)
}

func joinTokens(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
