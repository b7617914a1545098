package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"jnkn/internal/graph"
	"jnkn/internal/impact"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the response as YAML
func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *StitchResponseCLI:
		return formatStitchHuman(v)
	case *impact.Report:
		return formatBlastHuman(v)
	case *impact.WhyReport:
		return formatWhyHuman(v)
	case *TraceResponseCLI:
		return formatTraceHuman(v)
	case *graph.Stats:
		return formatStatsHuman(v)
	case *MappingsResponseCLI:
		return formatMappingsHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatStitchHuman(resp *StitchResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Stitch Run %s\n", resp.RunID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Explicit edges: %d\n", resp.ExplicitCount))
	b.WriteString(fmt.Sprintf("Fuzzy edges: %d\n", resp.FuzzyCount))
	b.WriteString(fmt.Sprintf("Suppressed (ignored): %d\n", resp.IgnoredCount))
	b.WriteString(fmt.Sprintf("Filtered (threshold/mapped): %d\n\n", resp.FilteredCount))

	if len(resp.PerRule) > 0 {
		b.WriteString("By Rule:\n")
		for _, r := range resp.PerRule {
			if r.Error != "" {
				b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", r.Rule, r.Error))
			} else {
				b.WriteString(fmt.Sprintf("  ✓ %s: %d edges\n", r.Rule, r.EdgeCount))
			}
		}
		b.WriteString("\n")
	}

	if len(resp.Edges) > 0 {
		b.WriteString("New Edges:\n")
		for _, e := range resp.Edges {
			b.WriteString(fmt.Sprintf("  %s -> %s (%s, %.2f)\n",
				e.SourceID, e.TargetID, e.Type, e.Confidence))
		}
		b.WriteString("\n")
	}

	if len(resp.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range resp.Warnings {
			b.WriteString(fmt.Sprintf("  ! %s\n", w))
		}
	}

	if resp.DryRun {
		b.WriteString("Dry run: nothing persisted.\n")
	}

	return b.String(), nil
}

func formatBlastHuman(resp *impact.Report) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Blast Radius: %s\n", strings.Join(resp.SourceArtifacts, ", ")))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Total impacted: %d\n", resp.TotalImpactedCount))
	if resp.Risk != nil {
		b.WriteString(fmt.Sprintf("Risk: %s (%.2f) - %s\n", resp.Risk.Level, resp.Risk.Score, resp.Risk.Explanation))
	}
	b.WriteString("\n")

	// Stable bucket order for readability.
	buckets := make([]string, 0, len(resp.Breakdown))
	for bucket := range resp.Breakdown {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	for _, bucket := range buckets {
		artifacts := resp.Breakdown[bucket]
		if len(artifacts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%s (%d):\n", bucket, len(artifacts)))
		for _, art := range artifacts {
			b.WriteString(fmt.Sprintf("  - %s\n", art))
		}
		b.WriteString("\n")
	}

	if len(resp.Unresolved) > 0 {
		b.WriteString("Not found in graph:\n")
		for _, art := range resp.Unresolved {
			b.WriteString(fmt.Sprintf("  ? %s\n", art))
		}
	}

	return b.String(), nil
}

func formatWhyHuman(resp *impact.WhyReport) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Why: %s\n", resp.NodeId))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.Node != nil {
		b.WriteString(fmt.Sprintf("Name: %s\n", resp.Node.Name))
		b.WriteString(fmt.Sprintf("Type: %s\n", resp.Node.Type))
		if resp.Node.Path != "" {
			b.WriteString(fmt.Sprintf("Path: %s\n", resp.Node.Path))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Incoming (%d):\n", len(resp.Incoming)))
	for _, e := range resp.Incoming {
		b.WriteString(fmt.Sprintf("  %s --%s--> (%.2f%s)\n",
			e.SourceId, e.Type, e.Confidence, strategySuffix(e.MatchStrategy)))
		if expl := e.Metadata["explanation"]; expl != "" {
			b.WriteString(fmt.Sprintf("    %s\n", expl))
		}
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Outgoing (%d):\n", len(resp.Outgoing)))
	for _, e := range resp.Outgoing {
		b.WriteString(fmt.Sprintf("  --%s--> %s (%.2f%s)\n",
			e.Type, e.TargetId, e.Confidence, strategySuffix(e.MatchStrategy)))
	}

	return b.String(), nil
}

func strategySuffix(strategy string) string {
	if strategy == "" {
		return ""
	}
	return ", " + strategy
}

func formatTraceHuman(resp *TraceResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Trace: %s -> %s\n", resp.From, resp.To))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Paths) == 0 {
		b.WriteString("No path found.\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("Found %d path(s):\n\n", len(resp.Paths)))
	for i, path := range resp.Paths {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, strings.Join(path, " -> ")))
	}

	return b.String(), nil
}

func formatStatsHuman(stats *graph.Stats) (string, error) {
	var b strings.Builder

	b.WriteString("Graph Statistics\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Nodes: %d\n", stats.TotalNodes))
	b.WriteString(fmt.Sprintf("Edges: %d\n", stats.TotalEdges))
	b.WriteString(fmt.Sprintf("Indexed tokens: %d\n", stats.IndexedTokens))
	b.WriteString(fmt.Sprintf("Orphan nodes: %d\n\n", stats.Orphans))

	if len(stats.NodesByType) > 0 {
		b.WriteString("Nodes by type:\n")
		for _, k := range sortedKeys(stats.NodesByType) {
			b.WriteString(fmt.Sprintf("  %s: %d\n", k, stats.NodesByType[k]))
		}
		b.WriteString("\n")
	}

	if len(stats.EdgesByType) > 0 {
		b.WriteString("Edges by type:\n")
		for _, k := range sortedKeys(stats.EdgesByType) {
			b.WriteString(fmt.Sprintf("  %s: %d\n", k, stats.EdgesByType[k]))
		}
	}

	return b.String(), nil
}

func formatMappingsHuman(resp *MappingsResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Mappings (%d)\n", len(resp.Mappings)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, m := range resp.Mappings {
		if m.Ignore {
			b.WriteString(fmt.Sprintf("  %s [ignored]", m.Source))
		} else {
			b.WriteString(fmt.Sprintf("  %s -> %s", m.Source, m.Target))
		}
		if m.Reason != "" {
			b.WriteString(fmt.Sprintf("  # %s", m.Reason))
		}
		b.WriteString("\n")
	}

	if len(resp.Warnings) > 0 {
		b.WriteString("\nValidation:\n")
		for _, w := range resp.Warnings {
			icon := "⚠"
			if w.Severity == "error" {
				icon = "✗"
			}
			b.WriteString(fmt.Sprintf("  %s [%s] %s\n", icon, w.Code, w.Message))
			if w.Suggestion != "" {
				b.WriteString(fmt.Sprintf("    → %s\n", w.Suggestion))
			}
		}
	}

	return b.String(), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
