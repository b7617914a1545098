package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/graph"
	"jnkn/internal/impact"
)

var (
	relatedFormat   string
	relatedTopK     int
	relatedPrefix   string
	relatedMinScore float64
)

var relatedCmd = &cobra.Command{
	Use:   "related <artifact>...",
	Short: "Rank artifacts related to the given ones",
	Long: `Rank the artifacts most closely related to the given ones using
personalized PageRank over the dependency graph. Unlike blast-radius,
relatedness is symmetric and weighted by edge confidence, so weakly
stitched neighbors rank below strongly connected ones.

Examples:
  jnkn related env:DATABASE_URL
  jnkn related data:orders --top=10
  jnkn related env:DB_HOST --prefix=infra:`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRelated,
}

func init() {
	relatedCmd.Flags().StringVar(&relatedFormat, "format", "human", "Output format (json, human)")
	relatedCmd.Flags().IntVar(&relatedTopK, "top", 20, "Number of results to return")
	relatedCmd.Flags().StringVar(&relatedPrefix, "prefix", "", "Only show artifacts with this id prefix")
	relatedCmd.Flags().Float64Var(&relatedMinScore, "min-score", 0, "Drop results below this score")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) {
	logger := newLogger(relatedFormat)
	repoRoot := mustGetRepoRoot()

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	analyzer := impact.NewAnalyzer(g, logger)
	seeds := make([]string, 0, len(args))
	for _, arg := range args {
		if resolved := analyzer.Resolve(arg); resolved != "" {
			seeds = append(seeds, resolved)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: artifact not found: %s\n", arg)
		}
	}
	if len(seeds) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no artifacts resolved")
		os.Exit(1)
	}

	opts := graph.DefaultRankOptions()
	opts.TopK = relatedTopK
	out, err := g.Rank(seeds, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ranking: %v\n", err)
		os.Exit(1)
	}

	if relatedPrefix != "" {
		out.Results = graph.FilterRankedByPrefix(out.Results, relatedPrefix)
	}
	if relatedMinScore > 0 {
		out.Results = graph.FilterRankedByMinScore(out.Results, relatedMinScore)
	}

	if OutputFormat(relatedFormat) == FormatHuman {
		printRelatedHuman(out)
		return
	}
	output, err := FormatResponse(out, OutputFormat(relatedFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func printRelatedHuman(out *graph.RankOutput) {
	fmt.Printf("Related to: %v\n", out.SeedIds)
	for _, r := range out.Results {
		fmt.Printf("  %.4f  %s\n", r.Score, r.NodeId)
		if len(r.Path) > 1 {
			fmt.Printf("          via %v\n", r.Path)
		}
	}
}
