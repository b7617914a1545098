package stitch

import (
	"fmt"
	"strings"
	"time"

	"jnkn/internal/graph"
	"jnkn/internal/logging"
	"jnkn/internal/mappings"
	"jnkn/internal/model"
)

// EnhancedResult extends a stitch run with accounting for the explicit
// mapping overlay.
type EnhancedResult struct {
	Result
	ExplicitEdges []*model.Edge `json:"explicitEdges"`
	IgnoredCount  int           `json:"ignoredCount"`
	FilteredCount int           `json:"filteredCount"`
}

// Total reports all edges inserted by the run.
func (r *EnhancedResult) Total() int {
	return len(r.ExplicitEdges) + len(r.NewEdges)
}

// EnhancedStitcher overlays user-declared mappings on fuzzy stitching with
// strict precedence: explicit provides-mappings win at full confidence,
// ignore-mappings keep a node out of fuzzy matching entirely, and fuzzy
// edges are dropped when they touch an explicitly mapped target or an
// ignored node.
type EnhancedStitcher struct {
	config  *MatchConfig
	matcher *mappings.Matcher
	rules   []Rule
	logger  *logging.Logger
}

// NewEnhancedStitcher builds a stitcher over the given mapping list. Nil
// config or logger select defaults.
func NewEnhancedStitcher(mappingList []*mappings.ExplicitMapping, config *MatchConfig, logger *logging.Logger) *EnhancedStitcher {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &EnhancedStitcher{
		config:  config,
		matcher: mappings.NewMatcher(mappingList),
		rules: []Rule{
			NewEnvVarToInfraRule(config),
			NewInfraToInfraRule(config),
		},
		logger: logger,
	}
}

// Matcher exposes the underlying mapping matcher.
func (s *EnhancedStitcher) Matcher() *mappings.Matcher {
	return s.matcher
}

// Stitch applies explicit mappings first, then fuzzy rules filtered against
// the overlay, inserting all surviving edges into the graph.
func (s *EnhancedStitcher) Stitch(g *graph.DependencyGraph) *EnhancedResult {
	result := &EnhancedResult{}

	explicit := s.explicitEdges(g)
	mappedTargets := make(map[string]struct{}, len(explicit))
	for _, edge := range explicit {
		mappedTargets[edge.TargetId] = struct{}{}
	}
	result.ExplicitEdges = insertNew(g, explicit)

	for _, rule := range s.rules {
		ruleResult := RuleResult{Rule: rule.Name()}

		proposed, err := rule.Apply(g)
		if err != nil {
			ruleResult.Err = err
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %s failed: %v", rule.Name(), err))
			s.logger.Warn("stitching rule failed", map[string]interface{}{
				"rule":  rule.Name(),
				"error": err.Error(),
			})
			result.PerRule = append(result.PerRule, ruleResult)
			continue
		}

		var kept []*model.Edge
		for _, edge := range proposed {
			if _, mapped := mappedTargets[edge.TargetId]; mapped {
				result.FilteredCount++
				continue
			}
			if s.matcher.IsIgnored(edge.SourceId) || s.matcher.IsIgnored(edge.TargetId) {
				result.IgnoredCount++
				continue
			}
			if edge.Confidence < s.config.MinConfidence {
				result.FilteredCount++
				continue
			}
			kept = append(kept, edge)
		}

		inserted := insertNew(g, kept)
		ruleResult.Edges = inserted
		result.NewEdges = append(result.NewEdges, inserted...)
		result.PerRule = append(result.PerRule, ruleResult)
	}

	s.logger.Info("stitch run complete", map[string]interface{}{
		"explicit": len(result.ExplicitEdges),
		"fuzzy":    len(result.NewEdges),
		"ignored":  result.IgnoredCount,
		"filtered": result.FilteredCount,
	})
	return result
}

// explicitEdges materializes provides-mappings against the current graph:
// exact mappings whose endpoints both exist, plus pattern expansions.
func (s *EnhancedStitcher) explicitEdges(g *graph.DependencyGraph) []*model.Edge {
	nodeIds := make(map[string]struct{}, g.NodeCount())
	for _, node := range g.Nodes() {
		nodeIds[node.Id] = struct{}{}
	}

	var edges []*model.Edge
	for _, mapping := range s.matcher.Mappings() {
		if mapping.IsIgnore() {
			continue
		}
		if strings.Contains(mapping.Source, "*") || strings.Contains(mapping.Target, "*") {
			continue
		}
		_, sourceOk := nodeIds[mapping.Source]
		_, targetOk := nodeIds[mapping.Target]
		if !sourceOk || !targetOk {
			continue
		}
		match := &mappings.Match{SourceId: mapping.Source, TargetId: mapping.Target, Mapping: mapping}
		edges = append(edges, explicitEdge(match))
	}

	for _, match := range s.matcher.ExpandPatterns(nodeIds) {
		edges = append(edges, explicitEdge(match))
	}
	return edges
}

func explicitEdge(match *mappings.Match) *model.Edge {
	return &model.Edge{
		SourceId:      match.SourceId,
		TargetId:      match.TargetId,
		Type:          model.RelProvides,
		Confidence:    1.0,
		MatchStrategy: model.MatchExact,
		Metadata:      match.EdgeMetadata(),
		CreatedAt:     time.Now().UTC(),
	}
}

// CheckMappingConflicts reports cases where an explicit mapping overrides a
// fuzzy match that would have chosen a different target for the same source.
func (s *EnhancedStitcher) CheckMappingConflicts(g *graph.DependencyGraph) []string {
	var conflicts []string

	fuzzy := make(map[string][]string)
	for _, rule := range s.rules {
		proposed, err := rule.Apply(g)
		if err != nil {
			continue
		}
		for _, edge := range proposed {
			fuzzy[edge.SourceId] = append(fuzzy[edge.SourceId], edge.TargetId)
		}
	}

	for _, mapping := range s.matcher.Mappings() {
		if mapping.IsIgnore() {
			continue
		}
		for _, target := range fuzzy[mapping.Source] {
			if target != mapping.Target {
				conflicts = append(conflicts, fmt.Sprintf(
					"explicit mapping overrides fuzzy: %s -> %s (fuzzy would be: %s)",
					mapping.Source, mapping.Target, target))
			}
		}
	}
	return conflicts
}
