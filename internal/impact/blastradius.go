package impact

import (
	"sort"
	"strings"

	"jnkn/internal/graph"
	"jnkn/internal/logging"
)

// Report is the outcome of a blast-radius calculation across one or more
// changed artifacts.
type Report struct {
	SourceArtifacts    []string            `json:"sourceArtifacts"`
	Unresolved         []string            `json:"unresolved,omitempty"`
	TotalImpactedCount int                 `json:"totalImpactedCount"`
	ImpactedArtifacts  []string            `json:"impactedArtifacts"`
	Breakdown          map[string][]string `json:"breakdown"`
	Risk               *RiskScore          `json:"risk,omitempty"`
}

// Analyzer computes the transitive impact of changing artifacts, resolving
// loose user input to concrete node ids first.
type Analyzer struct {
	graph  *graph.DependencyGraph
	logger *logging.Logger
}

// NewAnalyzer builds an analyzer over a graph. A nil logger discards output.
func NewAnalyzer(g *graph.DependencyGraph, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Analyzer{graph: g, logger: logger}
}

// idPrefixes are tried in order when resolving bare artifact names.
var idPrefixes = []string{"env:", "file://", "infra:", "data:", "k8s:"}

// Resolve maps loose user input to a concrete node id, or "" when nothing
// plausible exists. The ladder: exact id, Terraform output shorthand,
// dotted resource paths, known id prefixes, then substring search.
func (a *Analyzer) Resolve(input string) string {
	if a.graph.HasNode(input) {
		return input
	}

	// infra:name is shorthand for a Terraform output.
	if strings.HasPrefix(input, "infra:") && !strings.Contains(input, "output") {
		candidate := strings.Replace(input, "infra:", "infra:output:", 1)
		if a.graph.HasNode(candidate) {
			return candidate
		}
	}

	// infra:aws_db_instance.main is addressed as infra:aws_db_instance:main.
	if strings.HasPrefix(input, "infra:") && strings.Contains(input, ".") {
		candidate := strings.ReplaceAll(input, ".", ":")
		if a.graph.HasNode(candidate) {
			return candidate
		}
	}

	for _, prefix := range idPrefixes {
		if !strings.HasPrefix(input, prefix) {
			candidate := prefix + input
			if a.graph.HasNode(candidate) {
				return candidate
			}
		}
	}

	matches := a.graph.FindNodes(input)
	if len(matches) > 0 {
		// Prefer a path-suffix match so "app.py" resolves to the file node
		// rather than an arbitrary substring hit.
		for _, m := range matches {
			if strings.HasSuffix(m, input) || strings.Contains(m, "/"+input) {
				return m
			}
		}
		return matches[0]
	}
	return ""
}

// Calculate resolves every changed artifact and unions their impacted sets.
// maxDepth caps traversal depth; negative means unbounded.
func (a *Analyzer) Calculate(changed []string, maxDepth int) *Report {
	report := &Report{SourceArtifacts: changed}

	union := make(map[string]struct{})
	for _, artifact := range changed {
		resolved := a.Resolve(artifact)
		if resolved == "" {
			report.Unresolved = append(report.Unresolved, artifact)
			a.logger.Warn("artifact not found in graph", map[string]interface{}{
				"artifact": artifact,
			})
			continue
		}
		for id := range a.graph.ImpactedNodes(resolved, maxDepth) {
			union[id] = struct{}{}
		}
	}

	report.TotalImpactedCount = len(union)
	report.ImpactedArtifacts = make([]string, 0, len(union))
	for id := range union {
		report.ImpactedArtifacts = append(report.ImpactedArtifacts, id)
	}
	sort.Strings(report.ImpactedArtifacts)
	report.Breakdown = categorize(report.ImpactedArtifacts)
	report.Risk = ComputeRiskScore(report, a.graph)
	return report
}

// categorize buckets artifact ids by their id scheme for reporting.
func categorize(artifacts []string) map[string][]string {
	breakdown := map[string][]string{
		"infra":   {},
		"data":    {},
		"code":    {},
		"env":     {},
		"unknown": {},
	}
	for _, art := range artifacts {
		switch {
		case strings.HasPrefix(art, "infra:"):
			breakdown["infra"] = append(breakdown["infra"], art)
		case strings.HasPrefix(art, "env:"):
			breakdown["env"] = append(breakdown["env"], art)
		case strings.HasPrefix(art, "file:") || strings.HasPrefix(art, "entity:"):
			breakdown["code"] = append(breakdown["code"], art)
		case strings.HasPrefix(art, "data:") || strings.Contains(art, "table"):
			breakdown["data"] = append(breakdown["data"], art)
		default:
			breakdown["unknown"] = append(breakdown["unknown"], art)
		}
	}
	return breakdown
}
