package mappings

import "strings"

// MappingType distinguishes the two mapping kinds.
type MappingType string

const (
	// MappingProvides declares that source provides/satisfies target.
	MappingProvides MappingType = "provides"
	// MappingIgnore suppresses a source from fuzzy matching entirely.
	MappingIgnore MappingType = "ignore"
)

// ExplicitMapping is a user-declared override between nodes in the graph.
// Source and target may each contain a single '*' wildcard. Explicit
// mappings beat fuzzy matching with full confidence.
type ExplicitMapping struct {
	Source string      `json:"source" toml:"source"`
	Target string      `json:"target" toml:"target"`
	Type   MappingType `json:"type" toml:"type"`
	Reason string      `json:"reason,omitempty" toml:"reason,omitempty"`
}

// IsIgnore reports whether this mapping suppresses its source.
func (m *ExplicitMapping) IsIgnore() bool {
	return m.Type == MappingIgnore
}

// Match is a concrete source-target pair produced by a mapping, either
// directly or by wildcard expansion. Confidence is always 1.0.
type Match struct {
	SourceId string
	TargetId string
	Mapping  *ExplicitMapping
}

// EdgeMetadata returns the provenance metadata for the resulting edge.
func (m *Match) EdgeMetadata() map[string]string {
	return map[string]string{
		"rule":           "explicit_mapping",
		"mapping_type":   string(m.Mapping.Type),
		"reason":         m.Mapping.Reason,
		"source_pattern": m.Mapping.Source,
		"target_pattern": m.Mapping.Target,
	}
}

// globMatch matches a value against a pattern containing at most one '*'
// wildcard. Patterns with more than one wildcard are malformed and treated
// as a non-match rather than an error.
func globMatch(value, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return value == pattern
	}
	if strings.Count(pattern, "*") > 1 {
		return false
	}
	parts := strings.SplitN(pattern, "*", 2)
	return len(value) >= len(parts[0])+len(parts[1]) &&
		strings.HasPrefix(value, parts[0]) &&
		strings.HasSuffix(value, parts[1])
}

// wildcardCapture extracts the substring of value matched by the pattern's
// wildcard, or "" with ok=false when the pattern has no single wildcard or
// does not match.
func wildcardCapture(value, pattern string) (string, bool) {
	if strings.Count(pattern, "*") != 1 || !globMatch(value, pattern) {
		return "", false
	}
	parts := strings.SplitN(pattern, "*", 2)
	return value[len(parts[0]) : len(value)-len(parts[1])], true
}

// Matcher indexes explicit mappings for fast lookup during stitching.
type Matcher struct {
	mappings       []*ExplicitMapping
	exactBySource  map[string]*ExplicitMapping
	patterns       []*ExplicitMapping
	ignoredSources map[string]struct{}
	ignorePatterns []*ExplicitMapping
}

// NewMatcher builds a matcher from a mapping list.
func NewMatcher(mappings []*ExplicitMapping) *Matcher {
	m := &Matcher{
		mappings:       mappings,
		exactBySource:  make(map[string]*ExplicitMapping),
		ignoredSources: make(map[string]struct{}),
	}
	for _, mapping := range mappings {
		switch {
		case mapping.IsIgnore():
			if strings.Contains(mapping.Source, "*") {
				m.ignorePatterns = append(m.ignorePatterns, mapping)
			} else {
				m.ignoredSources[mapping.Source] = struct{}{}
			}
		case strings.Contains(mapping.Source, "*") || strings.Contains(mapping.Target, "*"):
			m.patterns = append(m.patterns, mapping)
		default:
			m.exactBySource[mapping.Source] = mapping
		}
	}
	return m
}

// Mappings returns the full mapping list.
func (m *Matcher) Mappings() []*ExplicitMapping {
	return m.mappings
}

// IsIgnored reports whether a source node is suppressed, either exactly or
// via an ignore glob.
func (m *Matcher) IsIgnored(sourceId string) bool {
	if _, ok := m.ignoredSources[sourceId]; ok {
		return true
	}
	for _, mapping := range m.ignorePatterns {
		if globMatch(sourceId, mapping.Source) {
			return true
		}
	}
	return false
}

// IgnoreReason returns the declared reason for ignoring a source, if any.
func (m *Matcher) IgnoreReason(sourceId string) string {
	for _, mapping := range m.mappings {
		if mapping.IsIgnore() && (sourceId == mapping.Source || globMatch(sourceId, mapping.Source)) {
			return mapping.Reason
		}
	}
	return ""
}

// MatchPair checks whether an explicit mapping covers a concrete
// source-target pair.
func (m *Matcher) MatchPair(sourceId, targetId string) *Match {
	if mapping, ok := m.exactBySource[sourceId]; ok && mapping.Target == targetId {
		return &Match{SourceId: sourceId, TargetId: targetId, Mapping: mapping}
	}
	for _, mapping := range m.patterns {
		if m.patternCovers(sourceId, targetId, mapping) {
			return &Match{SourceId: sourceId, TargetId: targetId, Mapping: mapping}
		}
	}
	return nil
}

// patternCovers verifies a pair against a pattern mapping. When both sides
// carry a wildcard, the substring captured from the source must substitute
// into the target pattern and reproduce the candidate target; this keeps
// unrelated same-glob pairs (redis_url -> REDIS_HOST) from matching. The
// substituted comparison ignores case so snake_case infra outputs line up
// with SCREAMING_CASE env vars.
func (m *Matcher) patternCovers(sourceId, targetId string, mapping *ExplicitMapping) bool {
	if !globMatch(sourceId, mapping.Source) {
		return false
	}
	if strings.Contains(mapping.Source, "*") && strings.Contains(mapping.Target, "*") {
		captured, ok := wildcardCapture(sourceId, mapping.Source)
		if ok {
			expected := strings.Replace(mapping.Target, "*", captured, 1)
			return strings.EqualFold(targetId, expected)
		}
	}
	return globMatch(targetId, mapping.Target)
}

// ExplicitTarget returns the target of an exact provides-mapping for the
// source, or "" when none exists.
func (m *Matcher) ExplicitTarget(sourceId string) string {
	if mapping, ok := m.exactBySource[sourceId]; ok {
		return mapping.Target
	}
	return ""
}

// ExpandPatterns resolves every pattern mapping against a concrete node-id
// set, emitting only pairs whose computed target actually exists. Target
// existence is checked case-insensitively, returning the id as it appears
// in the set.
func (m *Matcher) ExpandPatterns(nodeIds map[string]struct{}) []*Match {
	folded := make(map[string]string, len(nodeIds))
	for id := range nodeIds {
		folded[strings.ToLower(id)] = id
	}

	var matches []*Match
	for _, mapping := range m.patterns {
		for sourceId := range nodeIds {
			if !globMatch(sourceId, mapping.Source) {
				continue
			}

			captured, ok := wildcardCapture(sourceId, mapping.Source)
			if ok && strings.Contains(mapping.Target, "*") {
				expected := strings.Replace(mapping.Target, "*", captured, 1)
				if actual, exists := folded[strings.ToLower(expected)]; exists {
					matches = append(matches, &Match{SourceId: sourceId, TargetId: actual, Mapping: mapping})
				}
			} else if !strings.Contains(mapping.Target, "*") {
				if _, exists := nodeIds[mapping.Target]; exists {
					matches = append(matches, &Match{SourceId: sourceId, TargetId: mapping.Target, Mapping: mapping})
				}
			}
		}
	}
	return matches
}
