package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/storage"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph",
	Long: `Export the full graph (nodes, edges, stats) as JSON or YAML, or as a
compressed snapshot that "jnkn import" can load elsewhere.

Examples:
  jnkn export --format=json
  jnkn export --format=yaml --out=graph.yaml
  jnkn export --format=snapshot --out=graph.snapshot.zst`,
	Run: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <snapshot>",
	Short: "Import a graph snapshot",
	Long: `Load a compressed snapshot produced by "jnkn export --format=snapshot"
into the local graph database.

Examples:
  jnkn import graph.snapshot.zst`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, yaml, snapshot)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout; required for snapshot)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	if exportFormat == "snapshot" {
		if exportOut == "" {
			fmt.Fprintln(os.Stderr, "Error: --format=snapshot requires --out")
			os.Exit(1)
		}
		if err := storage.ExportSnapshot(exportOut, g); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote snapshot of %d nodes, %d edges to %s\n",
			g.NodeCount(), g.EdgeCount(), exportOut)
		return
	}

	output, err := FormatResponse(g.ToSnapshot(), OutputFormat(exportFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	if exportOut == "" {
		fmt.Println(output)
		return
	}
	if err := os.WriteFile(exportOut, []byte(output+"\n"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", exportOut, err)
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()

	g, err := storage.ImportSnapshot(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
		os.Exit(1)
	}

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()

	if err := db.SaveNodesBatch(g.Nodes()); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting nodes: %v\n", err)
		os.Exit(1)
	}
	if err := db.SaveEdgesBatch(g.Edges()); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting edges: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
}
