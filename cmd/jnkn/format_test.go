package main

import (
	"strings"
	"testing"

	"jnkn/internal/graph"
	"jnkn/internal/impact"
)

func TestFormatJSON(t *testing.T) {
	resp := &TraceResponseCLI{From: "a", To: "b", Paths: [][]string{{"a", "b"}}}
	out, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.Contains(out, `"from": "a"`) {
		t.Errorf("missing from field: %s", out)
	}
}

func TestFormatYAML(t *testing.T) {
	stats := &graph.Stats{TotalNodes: 3, TotalEdges: 2}
	out, err := FormatResponse(stats, FormatYAML)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.Contains(out, "totalNodes: 3") {
		t.Errorf("missing totalNodes: %s", out)
	}
}

func TestFormatUnsupported(t *testing.T) {
	if _, err := FormatResponse(struct{}{}, OutputFormat("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatStitchHuman(t *testing.T) {
	resp := &StitchResponseCLI{
		RunID:         "run-1",
		ExplicitCount: 1,
		FuzzyCount:    2,
		PerRule:       []RuleCLI{{Rule: "env_var_to_infra", EdgeCount: 2}},
		Edges: []StitchedEdge{
			{SourceID: "infra:output:db_host", TargetID: "env:DB_HOST", Type: "provides", Confidence: 0.9},
		},
		DryRun: true,
	}
	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	for _, want := range []string{"run-1", "env_var_to_infra", "infra:output:db_host -> env:DB_HOST", "Dry run"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBlastHuman(t *testing.T) {
	report := &impact.Report{
		SourceArtifacts:    []string{"env:DB_HOST"},
		TotalImpactedCount: 1,
		ImpactedArtifacts:  []string{"file://src/app.py"},
		Breakdown: map[string][]string{
			"code": {"file://src/app.py"},
		},
		Unresolved: []string{"nope"},
	}
	out, err := FormatResponse(report, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	for _, want := range []string{"Total impacted: 1", "code (1)", "file://src/app.py", "? nope"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTraceHumanNoPath(t *testing.T) {
	resp := &TraceResponseCLI{From: "a", To: "b"}
	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.Contains(out, "No path found") {
		t.Errorf("expected no-path message: %s", out)
	}
}

func TestFormatMappingsHuman(t *testing.T) {
	resp := &MappingsResponseCLI{
		Mappings: []MappingCLI{
			{Source: "infra:output:db", Target: "env:DATABASE_URL"},
			{Source: "env:CI_TOKEN", Ignore: true, Reason: "set by CI"},
		},
	}
	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	for _, want := range []string{"infra:output:db -> env:DATABASE_URL", "env:CI_TOKEN [ignored]", "set by CI"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
