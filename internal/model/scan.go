package model

import (
	"encoding/hex"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ScanMetadata tracks per-file state for incremental rescans: a file whose
// content hash is unchanged can be skipped entirely.
type ScanMetadata struct {
	FilePath    string    `json:"filePath"`
	FileHash    string    `json:"fileHash"`
	LastScanned time.Time `json:"lastScanned"`
	NodeCount   int       `json:"nodeCount"`
	EdgeCount   int       `json:"edgeCount"`
}

// IsStale reports whether the file content has changed since the last scan.
func (s *ScanMetadata) IsStale(currentHash string) bool {
	return s.FileHash != currentHash
}

// ComputeFileHash hashes file content with BLAKE2b-256. Returns an empty
// string when the file cannot be read; callers treat that as "always stale".
func ComputeFileHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ScanMetadataFromFile builds scan metadata for a file at scan time.
func ScanMetadataFromFile(path string, nodeCount, edgeCount int) *ScanMetadata {
	return &ScanMetadata{
		FilePath:    path,
		FileHash:    ComputeFileHash(path),
		LastScanned: time.Now().UTC(),
		NodeCount:   nodeCount,
		EdgeCount:   edgeCount,
	}
}
