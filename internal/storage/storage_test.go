package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jnkn/internal/graph"
	"jnkn/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenPath(filepath.Join(t.TempDir(), "jnkn.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, nil)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = os.Stat(filepath.Join(root, ".jnkn", "jnkn.db"))
	assert.NoError(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 2; i++ {
		db, err := Open(root, nil)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestNodeRoundTrip(t *testing.T) {
	db := openTestDB(t)

	node := model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar).
		WithMetadata(map[string]string{"file": "src/app.py"})
	node.Path = "src/app.py"
	node.Language = "python"

	require.NoError(t, db.SaveNodesBatch([]*model.Node{node}))

	loaded, err := db.LoadAllNodes()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "env:DB_HOST", got.Id)
	assert.Equal(t, "DB_HOST", got.Name)
	assert.Equal(t, model.NodeEnvVar, got.Type)
	assert.Equal(t, "src/app.py", got.Path)
	assert.Equal(t, "python", got.Language)
	assert.Equal(t, node.EffectiveTokens(), got.EffectiveTokens())
	assert.Equal(t, "src/app.py", got.Metadata["file"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSaveNodesBatchUpserts(t *testing.T) {
	db := openTestDB(t)

	first := model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar)
	require.NoError(t, db.SaveNodesBatch([]*model.Node{first}))

	second := model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar)
	second.Path = "src/settings.py"
	require.NoError(t, db.SaveNodesBatch([]*model.Node{second}))

	loaded, err := db.LoadAllNodes()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "src/settings.py", loaded[0].Path)
}

func TestEdgeRoundTrip(t *testing.T) {
	db := openTestDB(t)

	edge := model.NewEdge("infra:output:db_host", "env:DB_HOST", model.RelProvides)
	edge.Confidence = 0.87
	edge.MatchStrategy = model.MatchNormalized
	edge.Metadata = map[string]string{"rule": "env_var_to_infra"}

	require.NoError(t, db.SaveEdgesBatch([]*model.Edge{edge}))

	loaded, err := db.LoadAllEdges()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "infra:output:db_host", got.SourceId)
	assert.Equal(t, "env:DB_HOST", got.TargetId)
	assert.Equal(t, model.RelProvides, got.Type)
	assert.InDelta(t, 0.87, got.Confidence, 0.0001)
	assert.Equal(t, model.MatchNormalized, got.MatchStrategy)
	assert.Equal(t, "env_var_to_infra", got.Metadata["rule"])
}

func seedChain(t *testing.T, db *DB) {
	t.Helper()
	// a -> b -> c -> d plus a side edge b -> x.
	edges := []*model.Edge{
		model.NewEdge("a", "b", model.RelDependsOn),
		model.NewEdge("b", "c", model.RelDependsOn),
		model.NewEdge("c", "d", model.RelDependsOn),
		model.NewEdge("b", "x", model.RelProvides),
	}
	require.NoError(t, db.SaveEdgesBatch(edges))
}

func TestQueryDescendants(t *testing.T) {
	db := openTestDB(t)
	seedChain(t, db)

	ids, err := db.QueryDescendants("a", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "x"}, ids)
}

func TestQueryDescendantsDepthLimit(t *testing.T) {
	db := openTestDB(t)
	seedChain(t, db)

	ids, err := db.QueryDescendants("a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "x"}, ids)
}

func TestQueryAncestors(t *testing.T) {
	db := openTestDB(t)
	seedChain(t, db)

	ids, err := db.QueryAncestors("d", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	ids, err = db.QueryAncestors("d", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)
}

func TestQueryReachableUnknownNode(t *testing.T) {
	db := openTestDB(t)
	seedChain(t, db)

	ids, err := db.QueryDescendants("nope", -1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteFileData(t *testing.T) {
	db := openTestDB(t)

	kept := model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar)
	doomed := model.NewNode("file://src/app.py", "app.py", model.NodeCodeFile)
	doomed.Path = "src/app.py"
	require.NoError(t, db.SaveNodesBatch([]*model.Node{kept, doomed}))
	require.NoError(t, db.SaveEdgesBatch([]*model.Edge{
		model.NewEdge("file://src/app.py", "env:DB_HOST", model.RelReads),
	}))
	require.NoError(t, db.UpsertScanMetadata(&model.ScanMetadata{
		FilePath:    "src/app.py",
		FileHash:    "abc",
		LastScanned: time.Now().UTC(),
		NodeCount:   1,
		EdgeCount:   1,
	}))

	require.NoError(t, db.DeleteFileData("src/app.py"))

	nodes, edges, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, nodes)
	assert.Equal(t, 0, edges)

	meta, err := db.GetScanMetadata("src/app.py")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestScanMetadataRoundTrip(t *testing.T) {
	db := openTestDB(t)

	meta, err := db.GetScanMetadata("src/app.py")
	require.NoError(t, err)
	assert.Nil(t, meta)

	scanned := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, db.UpsertScanMetadata(&model.ScanMetadata{
		FilePath:    "src/app.py",
		FileHash:    "hash-1",
		LastScanned: scanned,
		NodeCount:   3,
		EdgeCount:   2,
	}))

	meta, err = db.GetScanMetadata("src/app.py")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "hash-1", meta.FileHash)
	assert.Equal(t, 3, meta.NodeCount)
	assert.Equal(t, 2, meta.EdgeCount)
	assert.True(t, meta.LastScanned.Equal(scanned))
	assert.True(t, meta.IsStale("hash-2"))
	assert.False(t, meta.IsStale("hash-1"))

	// Rescan replaces the row.
	require.NoError(t, db.UpsertScanMetadata(&model.ScanMetadata{
		FilePath:    "src/app.py",
		FileHash:    "hash-2",
		LastScanned: time.Now().UTC(),
		NodeCount:   4,
		EdgeCount:   3,
	}))
	meta, err = db.GetScanMetadata("src/app.py")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "hash-2", meta.FileHash)
	assert.Equal(t, 4, meta.NodeCount)
}

func TestCounts(t *testing.T) {
	db := openTestDB(t)

	nodes, edges, err := db.Counts()
	require.NoError(t, err)
	assert.Zero(t, nodes)
	assert.Zero(t, edges)

	require.NoError(t, db.SaveNodesBatch([]*model.Node{
		model.NewNode("env:A", "A", model.NodeEnvVar),
		model.NewNode("env:B", "B", model.NodeEnvVar),
	}))
	require.NoError(t, db.SaveEdgesBatch([]*model.Edge{
		model.NewEdge("env:A", "env:B", model.RelDependsOn),
	}))

	nodes, edges, err = db.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := graph.New()
	node := model.NewNode("env:DB_HOST", "DB_HOST", model.NodeEnvVar)
	provider := model.NewNode("infra:output:db_host", "db_host", model.NodeInfraResource)
	g.AddNode(node)
	g.AddNode(provider)
	edge := model.NewEdge("infra:output:db_host", "env:DB_HOST", model.RelProvides)
	edge.Confidence = 0.9
	g.AddEdge(edge)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, g))
	// zstd magic bytes, not raw JSON.
	require.True(t, buf.Len() > 4)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, buf.Bytes()[:4])

	restored, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.NodeCount())
	assert.Equal(t, 1, restored.EdgeCount())
	assert.True(t, restored.HasEdge("infra:output:db_host", "env:DB_HOST"))
	require.NotNil(t, restored.GetNode("env:DB_HOST"))
	assert.Equal(t, model.NodeEnvVar, restored.GetNode("env:DB_HOST").Type)
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	g := graph.New()
	g.AddNode(model.NewNode("data:orders", "orders", model.NodeDataAsset))

	path := filepath.Join(t.TempDir(), "graph.snapshot.zst")
	require.NoError(t, ExportSnapshot(path, g))

	restored, err := ImportSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.NodeCount())
}

func TestImportSnapshotMissingFile(t *testing.T) {
	_, err := ImportSnapshot(filepath.Join(t.TempDir(), "nope.zst"))
	assert.Error(t, err)
}
