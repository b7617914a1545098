package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/impact"
)

var whyFormat string

var whyCmd = &cobra.Command{
	Use:   "why <artifact>",
	Short: "Explain an artifact's direct dependencies",
	Long: `Show every edge touching an artifact with its confidence and the
evidence that produced it, including which stitching rule inferred it.

Examples:
  jnkn why env:DATABASE_URL
  jnkn why infra:output:db_host --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runWhy,
}

func init() {
	whyCmd.Flags().StringVar(&whyFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(whyCmd)
}

func runWhy(cmd *cobra.Command, args []string) {
	logger := newLogger(whyFormat)
	repoRoot := mustGetRepoRoot()

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	analyzer := impact.NewAnalyzer(g, logger)
	report := analyzer.Why(args[0])
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error: artifact not found: %s\n", args[0])
		os.Exit(1)
	}

	output, err := FormatResponse(report, OutputFormat(whyFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
