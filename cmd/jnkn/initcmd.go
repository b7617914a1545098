package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jnkn/internal/config"
	"jnkn/internal/manifest"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize jnkn in a repository",
	Long: `Create the .jnkn directory with a default config, an empty graph
database, and a starter jnkn.toml manifest.

Existing files are left untouched.`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()

	configPath := filepath.Join(repoRoot, ".jnkn", "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.DefaultConfig().Save(repoRoot); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created %s\n", configPath)
	}

	manifestPath := filepath.Join(repoRoot, manifest.FileName)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		m := manifest.Empty(filepath.Base(repoRoot))
		if err := m.Save(manifestPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created %s\n", manifestPath)
	}

	db := mustOpenStorage(repoRoot, logger)
	defer db.Close()
	fmt.Printf("Graph database ready at %s\n", db.Path())
}
