package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jnkn/internal/mappings"
)

var mappingsFormat string

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Inspect explicit mappings",
	Long:  `List and validate the explicit mappings declared in jnkn.toml.`,
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declared mappings",
	Run:   runMappingsList,
}

var mappingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate mappings against the graph",
	Long: `Check every declared mapping against the persisted graph: sources and
targets that do not exist are warnings, two mappings claiming the same
source with different targets is an error.`,
	Run: runMappingsValidate,
}

func init() {
	mappingsCmd.PersistentFlags().StringVar(&mappingsFormat, "format", "human", "Output format (json, human)")
	mappingsCmd.AddCommand(mappingsListCmd)
	mappingsCmd.AddCommand(mappingsValidateCmd)
	rootCmd.AddCommand(mappingsCmd)
}

// MappingsResponseCLI contains mapping inspection results for CLI output
type MappingsResponseCLI struct {
	Mappings []MappingCLI                 `json:"mappings"`
	Warnings []mappings.ValidationWarning `json:"warnings,omitempty"`
}

// MappingCLI is one declared mapping
type MappingCLI struct {
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
	Ignore bool   `json:"ignore,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func convertMappings(list []*mappings.ExplicitMapping) []MappingCLI {
	out := make([]MappingCLI, 0, len(list))
	for _, m := range list {
		out = append(out, MappingCLI{
			Source: m.Source,
			Target: m.Target,
			Ignore: m.IsIgnore(),
			Reason: m.Reason,
		})
	}
	return out
}

func runMappingsList(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	man := mustLoadManifest(repoRoot)

	resp := &MappingsResponseCLI{Mappings: convertMappings(man.Mappings)}

	output, err := FormatResponse(resp, OutputFormat(mappingsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runMappingsValidate(cmd *cobra.Command, args []string) {
	logger := newLogger(mappingsFormat)
	repoRoot := mustGetRepoRoot()
	man := mustLoadManifest(repoRoot)

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	g := mustLoadGraph(db)

	nodeIds := make(map[string]struct{}, g.NodeCount())
	for _, node := range g.Nodes() {
		nodeIds[node.Id] = struct{}{}
	}

	validator := mappings.NewValidator(nodeIds)
	warnings := validator.Validate(man.Mappings)

	resp := &MappingsResponseCLI{
		Mappings: convertMappings(man.Mappings),
		Warnings: warnings,
	}

	output, err := FormatResponse(resp, OutputFormat(mappingsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	for _, w := range warnings {
		if w.Severity == "error" {
			os.Exit(1)
		}
	}
}
