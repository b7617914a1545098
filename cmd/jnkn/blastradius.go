package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/impact"
)

var (
	blastDepth  int
	blastFormat string
)

var blastRadiusCmd = &cobra.Command{
	Use:   "blast-radius <artifact>...",
	Short: "Compute transitive change impact",
	Long: `Compute everything that would be affected by changing the given
artifacts, following direction-aware dependency edges.

Artifacts can be full node ids or loose names; loose input is resolved
against known id schemes and then by substring.

Examples:
  jnkn blast-radius env:DATABASE_URL
  jnkn blast-radius infra:aws_db_instance.main
  jnkn blast-radius DB_HOST src/app.py --depth=2
  jnkn blast-radius data:orders --format=json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBlastRadius,
}

func init() {
	blastRadiusCmd.Flags().IntVar(&blastDepth, "depth", -1, "Maximum traversal depth (-1 = unbounded)")
	blastRadiusCmd.Flags().StringVar(&blastFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(blastRadiusCmd)
}

func runBlastRadius(cmd *cobra.Command, args []string) {
	logger := newLogger(blastFormat)
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot, logger)

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	depth := cfg.Impact.MaxDepth
	if cmd.Flags().Changed("depth") {
		depth = blastDepth
	}

	analyzer := impact.NewAnalyzer(g, logger)
	report := analyzer.Calculate(args, depth)

	output, err := FormatResponse(report, OutputFormat(blastFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	// Nothing resolved at all is an input error, not an empty result.
	if len(report.Unresolved) == len(args) {
		os.Exit(1)
	}
}
