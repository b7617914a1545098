package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	Long: `Summarize the persisted graph: node and edge counts by type, token
index size, and orphan nodes.

Examples:
  jnkn stats
  jnkn stats --format=json`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	logger := newLogger(statsFormat)
	repoRoot := mustGetRepoRoot()

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	output, err := FormatResponse(g.GetStats(), OutputFormat(statsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
