package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jnkn/internal/model"
	"jnkn/internal/stitch"
)

var (
	stitchFormat         string
	stitchDryRun         bool
	stitchMinConfidence  float64
	stitchCheckConflicts bool
)

var stitchCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Infer cross-domain edges",
	Long: `Run the stitching rules over the persisted graph and insert the
inferred cross-domain edges.

Explicit mappings from jnkn.toml are applied first at full confidence.
Fuzzy rules then connect env vars to infrastructure outputs and related
infrastructure resources, scored by the confidence calculator. Edges
below the confidence threshold, targeting an explicitly mapped node, or
touching an ignored node are dropped.

Examples:
  jnkn stitch
  jnkn stitch --dry-run
  jnkn stitch --min-confidence=0.7
  jnkn stitch --check-conflicts`,
	Run: runStitch,
}

func init() {
	stitchCmd.Flags().StringVar(&stitchFormat, "format", "human", "Output format (json, human)")
	stitchCmd.Flags().BoolVar(&stitchDryRun, "dry-run", false, "Report edges without persisting them")
	stitchCmd.Flags().Float64Var(&stitchMinConfidence, "min-confidence", 0, "Override the confidence threshold")
	stitchCmd.Flags().BoolVar(&stitchCheckConflicts, "check-conflicts", false, "Report explicit mappings that override fuzzy matches")
	rootCmd.AddCommand(stitchCmd)
}

func runStitch(cmd *cobra.Command, args []string) {
	logger := newLogger(stitchFormat)
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot, logger)

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	man := mustLoadManifest(repoRoot)

	// Threshold precedence: flag > manifest > config.
	matchCfg := cfg.MatchConfig()
	if man.Tool.MinConfidence > 0 {
		matchCfg.MinConfidence = man.Tool.MinConfidence
	}
	if cmd.Flags().Changed("min-confidence") {
		matchCfg.MinConfidence = stitchMinConfidence
	}

	stitcher := stitch.NewEnhancedStitcher(man.Mappings, matchCfg, logger)
	result := stitcher.Stitch(g)

	runID := uuid.NewString()
	inserted := make([]*model.Edge, 0, result.Total())
	inserted = append(inserted, result.ExplicitEdges...)
	inserted = append(inserted, result.NewEdges...)
	for _, edge := range inserted {
		if edge.Metadata == nil {
			edge.Metadata = make(map[string]string, 1)
		}
		edge.Metadata["stitch_run"] = runID
	}

	if !stitchDryRun && len(inserted) > 0 {
		if err := db.SaveEdgesBatch(inserted); err != nil {
			fmt.Fprintf(os.Stderr, "Error persisting edges: %v\n", err)
			os.Exit(1)
		}
	}

	resp := convertStitchResult(runID, result)
	resp.DryRun = stitchDryRun
	if stitchCheckConflicts {
		resp.Conflicts = stitcher.CheckMappingConflicts(g)
	}

	output, err := FormatResponse(resp, OutputFormat(stitchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// StitchResponseCLI contains stitch run results for CLI output
type StitchResponseCLI struct {
	RunID         string         `json:"runId"`
	ExplicitCount int            `json:"explicitCount"`
	FuzzyCount    int            `json:"fuzzyCount"`
	IgnoredCount  int            `json:"ignoredCount"`
	FilteredCount int            `json:"filteredCount"`
	PerRule       []RuleCLI      `json:"perRule"`
	Edges         []StitchedEdge `json:"edges"`
	Warnings      []string       `json:"warnings,omitempty"`
	Conflicts     []string       `json:"conflicts,omitempty"`
	DryRun        bool           `json:"dryRun,omitempty"`
}

// RuleCLI summarizes one rule's contribution
type RuleCLI struct {
	Rule      string `json:"rule"`
	EdgeCount int    `json:"edgeCount"`
	Error     string `json:"error,omitempty"`
}

// StitchedEdge is one inserted edge
type StitchedEdge struct {
	SourceID   string  `json:"sourceId"`
	TargetID   string  `json:"targetId"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Rule       string  `json:"rule,omitempty"`
}

func convertStitchResult(runID string, result *stitch.EnhancedResult) *StitchResponseCLI {
	resp := &StitchResponseCLI{
		RunID:         runID,
		ExplicitCount: len(result.ExplicitEdges),
		FuzzyCount:    len(result.NewEdges),
		IgnoredCount:  result.IgnoredCount,
		FilteredCount: result.FilteredCount,
		Warnings:      result.Warnings,
	}

	for _, r := range result.PerRule {
		rule := RuleCLI{Rule: r.Rule, EdgeCount: len(r.Edges)}
		if r.Err != nil {
			rule.Error = r.Err.Error()
		}
		resp.PerRule = append(resp.PerRule, rule)
	}

	edges := make([]*model.Edge, 0, result.Total())
	edges = append(edges, result.ExplicitEdges...)
	edges = append(edges, result.NewEdges...)
	resp.Edges = make([]StitchedEdge, 0, len(edges))
	for _, e := range edges {
		resp.Edges = append(resp.Edges, StitchedEdge{
			SourceID:   e.SourceId,
			TargetID:   e.TargetId,
			Type:       string(e.Type),
			Confidence: e.Confidence,
			Rule:       e.RuleName(),
		})
	}
	return resp
}
