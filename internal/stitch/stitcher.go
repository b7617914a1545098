package stitch

import (
	"fmt"

	"jnkn/internal/graph"
	"jnkn/internal/logging"
	"jnkn/internal/model"
)

// RuleResult records one rule's contribution to a stitch run: the edges it
// got inserted, or the failure that made it drop out.
type RuleResult struct {
	Rule  string        `json:"rule"`
	Edges []*model.Edge `json:"edges,omitempty"`
	Err   error         `json:"-"`
}

// Result aggregates a full stitch run.
type Result struct {
	NewEdges []*model.Edge `json:"newEdges"`
	PerRule  []RuleResult  `json:"perRule"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Stitcher runs a rule list against a graph. Proposed edges are checked
// against existing ones before insertion, so stitching an unchanged graph
// twice adds nothing. A failing rule is recorded and skipped; it never
// aborts the remaining rules.
type Stitcher struct {
	rules  []Rule
	logger *logging.Logger
}

// NewStitcher builds a stitcher with the default rule set. Nil config or
// logger select defaults.
func NewStitcher(config *MatchConfig, logger *logging.Logger) *Stitcher {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Stitcher{
		rules: []Rule{
			NewEnvVarToInfraRule(config),
			NewInfraToInfraRule(config),
		},
		logger: logger,
	}
}

// AddRule appends a custom rule to the run list.
func (s *Stitcher) AddRule(rule Rule) {
	s.rules = append(s.rules, rule)
}

// Rules returns the configured rule list.
func (s *Stitcher) Rules() []Rule {
	return s.rules
}

// Stitch applies every rule and inserts the surviving edges into the graph.
func (s *Stitcher) Stitch(g *graph.DependencyGraph) *Result {
	result := &Result{}
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

		inserted := insertNew(g, proposed)
		ruleResult.Edges = inserted
		result.NewEdges = append(result.NewEdges, inserted...)
		result.PerRule = append(result.PerRule, ruleResult)

		s.logger.Debug("stitching rule applied", map[string]interface{}{
			"rule":     rule.Name(),
			"proposed": len(proposed),
			"inserted": len(inserted),
		})
	}
	return result
}

// insertNew adds only edges not already present between the same endpoints.
func insertNew(g *graph.DependencyGraph, edges []*model.Edge) []*model.Edge {
	var inserted []*model.Edge
	for _, edge := range edges {
		if g.HasEdge(edge.SourceId, edge.TargetId) {
			continue
		}
		g.AddEdge(edge)
		inserted = append(inserted, edge)
	}
	return inserted
}
