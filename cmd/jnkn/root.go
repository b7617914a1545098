package main

import (
	"jnkn/internal/version"

	"github.com/spf13/cobra"
)

var (
	// repoRootFlag is the CLI --repo-root flag value
	repoRootFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "jnkn",
	Short: "jnkn - cross-domain dependency graph",
	Long: `jnkn (junkan) builds a dependency graph that spans code, infrastructure,
and data artifacts, stitches the domains together with confidence-scored
matching, and answers "what breaks if I change this?" before the change ships.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("jnkn version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", "",
		"Repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info",
		"Log level (debug, info, warn, error)")
}
