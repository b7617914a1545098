package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jnkn/internal/model"
)

// SaveNodesBatch upserts nodes in one transaction.
func (db *DB) SaveNodesBatch(nodes []*model.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO nodes
			(id, name, type, path, language, file_hash, tokens, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, node := range nodes {
			tokens, err := marshalJSON(node.EffectiveTokens())
			if err != nil {
				return fmt.Errorf("node %s: %w", node.Id, err)
			}
			metadata, err := marshalJSON(node.Metadata)
			if err != nil {
				return fmt.Errorf("node %s: %w", node.Id, err)
			}
			_, err = stmt.Exec(
				node.Id, node.Name, string(node.Type), node.Path, node.Language,
				node.FileHash, tokens, metadata, formatTime(node.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("save node %s: %w", node.Id, err)
			}
		}
		return nil
	})
}

// SaveEdgesBatch upserts edges in one transaction.
func (db *DB) SaveEdgesBatch(edges []*model.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO edges
			(source_id, target_id, type, confidence, match_strategy, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, edge := range edges {
			metadata, err := marshalJSON(edge.Metadata)
			if err != nil {
				return fmt.Errorf("edge %s->%s: %w", edge.SourceId, edge.TargetId, err)
			}
			_, err = stmt.Exec(
				edge.SourceId, edge.TargetId, string(edge.Type), edge.Confidence,
				string(edge.MatchStrategy), metadata, formatTime(edge.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("save edge %s->%s: %w", edge.SourceId, edge.TargetId, err)
			}
		}
		return nil
	})
}

// LoadAllNodes reads every node, ordered by id.
func (db *DB) LoadAllNodes() ([]*model.Node, error) {
	rows, err := db.Query(`
		SELECT id, name, type, path, language, file_hash, tokens, metadata, created_at
		FROM nodes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*model.Node
	for rows.Next() {
		var node model.Node
		var nodeType, tokens, metadata, createdAt string
		err := rows.Scan(&node.Id, &node.Name, &nodeType, &node.Path,
			&node.Language, &node.FileHash, &tokens, &metadata, &createdAt)
		if err != nil {
			return nil, err
		}
		node.Type = model.NodeType(nodeType)
		if err := unmarshalJSON(tokens, &node.Tokens); err != nil {
			return nil, fmt.Errorf("node %s tokens: %w", node.Id, err)
		}
		if err := unmarshalJSON(metadata, &node.Metadata); err != nil {
			return nil, fmt.Errorf("node %s metadata: %w", node.Id, err)
		}
		node.CreatedAt = parseTime(createdAt)
		nodes = append(nodes, &node)
	}
	return nodes, rows.Err()
}

// LoadAllEdges reads every edge, ordered by source then target.
func (db *DB) LoadAllEdges() ([]*model.Edge, error) {
	rows, err := db.Query(`
		SELECT source_id, target_id, type, confidence, match_strategy, metadata, created_at
		FROM edges ORDER BY source_id, target_id, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		var edge model.Edge
		var edgeType, strategy, metadata, createdAt string
		err := rows.Scan(&edge.SourceId, &edge.TargetId, &edgeType,
			&edge.Confidence, &strategy, &metadata, &createdAt)
		if err != nil {
			return nil, err
		}
		edge.Type = model.RelationshipType(edgeType)
		edge.MatchStrategy = model.MatchStrategy(strategy)
		if err := unmarshalJSON(metadata, &edge.Metadata); err != nil {
			return nil, fmt.Errorf("edge %s->%s metadata: %w", edge.SourceId, edge.TargetId, err)
		}
		edge.CreatedAt = parseTime(createdAt)
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

// QueryDescendants returns ids reachable from a node over outgoing edges
// using a recursive CTE, so large graphs never have to be loaded to answer
// a reachability question. maxDepth < 0 means unbounded.
func (db *DB) QueryDescendants(nodeId string, maxDepth int) ([]string, error) {
	return db.queryReachable(nodeId, maxDepth, true)
}

// QueryAncestors is the incoming-edge counterpart of QueryDescendants.
func (db *DB) QueryAncestors(nodeId string, maxDepth int) ([]string, error) {
	return db.queryReachable(nodeId, maxDepth, false)
}

func (db *DB) queryReachable(nodeId string, maxDepth int, downstream bool) ([]string, error) {
	from, to := "source_id", "target_id"
	if !downstream {
		from, to = to, from
	}
	query := fmt.Sprintf(`
		WITH RECURSIVE reachable(id, depth) AS (
			SELECT %[2]s, 1 FROM edges WHERE %[1]s = ?
			UNION
			SELECT e.%[2]s, r.depth + 1
			FROM edges e
			JOIN reachable r ON e.%[1]s = r.id
			WHERE ? < 0 OR r.depth < ?
		)
		SELECT DISTINCT id FROM reachable ORDER BY id`, from, to)

	rows, err := db.Query(query, nodeId, maxDepth, maxDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteFileData removes all nodes extracted from a file, the edges
// touching them, and the file's scan metadata. Used before re-ingesting a
// changed file.
func (db *DB) DeleteFileData(filePath string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM edges WHERE source_id IN (SELECT id FROM nodes WHERE path = ?)
			OR target_id IN (SELECT id FROM nodes WHERE path = ?)`, filePath, filePath); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM nodes WHERE path = ?", filePath); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM scan_metadata WHERE file_path = ?", filePath)
		return err
	})
}

// UpsertScanMetadata records the scan state for a file.
func (db *DB) UpsertScanMetadata(meta *model.ScanMetadata) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO scan_metadata
		(file_path, file_hash, last_scanned, node_count, edge_count)
		VALUES (?, ?, ?, ?, ?)`,
		meta.FilePath, meta.FileHash, formatTime(meta.LastScanned),
		meta.NodeCount, meta.EdgeCount)
	return err
}

// GetScanMetadata returns the scan state for a file, or nil when the file
// has never been scanned.
func (db *DB) GetScanMetadata(filePath string) (*model.ScanMetadata, error) {
	var meta model.ScanMetadata
	var lastScanned string
	err := db.QueryRow(`
		SELECT file_path, file_hash, last_scanned, node_count, edge_count
		FROM scan_metadata WHERE file_path = ?`, filePath).
		Scan(&meta.FilePath, &meta.FileHash, &lastScanned, &meta.NodeCount, &meta.EdgeCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta.LastScanned = parseTime(lastScanned)
	return &meta, nil
}

// Counts returns the stored node and edge totals.
func (db *DB) Counts() (nodes int, edges int, err error) {
	if err = db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes); err != nil {
		return 0, 0, err
	}
	if err = db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges); err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}

func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalJSON(data string, v interface{}) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
