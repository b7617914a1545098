package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/impact"
)

var traceFormat string

var traceCmd = &cobra.Command{
	Use:   "trace <from> <to>",
	Short: "Show dependency paths between two artifacts",
	Long: `Enumerate the simple paths connecting two artifacts, edge by edge.

Useful for answering "why does changing X affect Y?" with the full chain
rather than just the endpoints.

Examples:
  jnkn trace infra:output:db_host env:DB_HOST
  jnkn trace infra:aws_db_instance.main data:orders_table`,
	Args: cobra.ExactArgs(2),
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().StringVar(&traceFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(traceCmd)
}

// TraceResponseCLI contains path enumeration results for CLI output
type TraceResponseCLI struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Paths [][]string `json:"paths"`
}

func runTrace(cmd *cobra.Command, args []string) {
	logger := newLogger(traceFormat)
	repoRoot := mustGetRepoRoot()

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	analyzer := impact.NewAnalyzer(g, logger)
	from := analyzer.Resolve(args[0])
	to := analyzer.Resolve(args[1])
	if from == "" {
		fmt.Fprintf(os.Stderr, "Error: artifact not found: %s\n", args[0])
		os.Exit(1)
	}
	if to == "" {
		fmt.Fprintf(os.Stderr, "Error: artifact not found: %s\n", args[1])
		os.Exit(1)
	}

	resp := &TraceResponseCLI{
		From:  from,
		To:    to,
		Paths: g.Trace(from, to),
	}

	output, err := FormatResponse(resp, OutputFormat(traceFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
