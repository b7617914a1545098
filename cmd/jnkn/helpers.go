package main

import (
	"fmt"
	"os"
	"path/filepath"

	"jnkn/internal/config"
	"jnkn/internal/graph"
	"jnkn/internal/logging"
	"jnkn/internal/manifest"
	"jnkn/internal/storage"
)

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	if repoRootFlag != "" {
		return filepath.Abs(repoRootFlag)
	}
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// mustLoadConfig loads the repository config, falling back to defaults when
// no config file exists or it cannot be read.
func mustLoadConfig(repoRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// mustOpenStorage opens the graph database or exits on error.
func mustOpenStorage(repoRoot string, logger *logging.Logger) *storage.DB {
	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return db
}

// loadGraph materializes the persisted graph into memory.
func loadGraph(db *storage.DB) (*graph.DependencyGraph, error) {
	nodes, err := db.LoadAllNodes()
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	edges, err := db.LoadAllEdges()
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	g := graph.New()
	for _, node := range nodes {
		g.AddNode(node)
	}
	for _, edge := range edges {
		g.AddEdge(edge)
	}
	return g, nil
}

// mustLoadGraph loads the persisted graph or exits on error.
func mustLoadGraph(db *storage.DB) *graph.DependencyGraph {
	g, err := loadGraph(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading graph: %v\n", err)
		os.Exit(1)
	}
	return g
}

// mustLoadManifest parses jnkn.toml at the repo root. A missing manifest is
// fine; a malformed one is fatal.
func mustLoadManifest(repoRoot string) *manifest.Manifest {
	m, err := manifest.Load(filepath.Join(repoRoot, manifest.FileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading manifest: %v\n", err)
		os.Exit(1)
	}
	return m
}

// newLogger creates a logger with the specified format. The level comes from
// the persistent --log-level flag.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.ParseLevel(logLevelFlag),
	})
}
