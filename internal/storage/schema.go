package storage

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// initializeSchema creates all tables and indexes. Statements are
// idempotent, so this runs on every open.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		statements := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS nodes (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL,
				path TEXT,
				language TEXT,
				file_hash TEXT,
				tokens TEXT,
				metadata TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS edges (
				source_id TEXT NOT NULL,
				target_id TEXT NOT NULL,
				type TEXT NOT NULL,
				confidence REAL NOT NULL DEFAULT 1.0,
				match_strategy TEXT,
				metadata TEXT,
				created_at TEXT NOT NULL,
				PRIMARY KEY (source_id, target_id, type)
			)`,
			`CREATE TABLE IF NOT EXISTS scan_metadata (
				file_path TEXT PRIMARY KEY,
				file_hash TEXT NOT NULL,
				last_scanned TEXT NOT NULL,
				node_count INTEGER NOT NULL DEFAULT 0,
				edge_count INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)`,
			`CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path)`,
			`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
			`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
		}

		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("schema statement failed: %w", err)
			}
		}
		return setSchemaVersion(tx, schemaVersion)
	})
}

// SchemaVersion reports the stored schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
