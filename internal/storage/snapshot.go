package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"jnkn/internal/graph"
)

// WriteSnapshot streams a zstd-compressed JSON snapshot of the graph.
// Snapshots travel well between machines and make graph state diffable in
// CI without shipping the database file.
func WriteSnapshot(w io.Writer, g *graph.DependencyGraph) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create compressor: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(g.ToSnapshot()); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot rebuilds a graph from a compressed snapshot stream.
func ReadSnapshot(r io.Reader) (*graph.DependencyGraph, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create decompressor: %w", err)
	}
	defer dec.Close()

	var snap graph.Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return graph.FromSnapshot(&snap), nil
}

// ExportSnapshot writes a compressed snapshot file.
func ExportSnapshot(path string, g *graph.DependencyGraph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteSnapshot(f, g); err != nil {
		return err
	}
	return f.Sync()
}

// ImportSnapshot reads a compressed snapshot file into a new graph.
func ImportSnapshot(path string) (*graph.DependencyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
