package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jnkn/internal/mappings"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeManifest(t, `
[project]
name = "payment-service"
version = "1.2.0"
description = "payment backend"

[tool.jnkn]
min_confidence = 0.7
include = ["src/**"]
exclude = ["vendor/**"]

[mappings]
"infra:output:db_endpoint" = "env:DATABASE_URL"
"infra:output:redis_*" = "env:REDIS_*"
"env:CI_BUILD_NUMBER" = { ignore = true, reason = "set by CI" }
"infra:output:dd_endpoint" = { target = "env:DD_API_ENDPOINT", reason = "platform managed" }
`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "payment-service", m.Project.Name)
	assert.Equal(t, "1.2.0", m.Project.Version)
	assert.Equal(t, 0.7, m.Tool.MinConfidence)
	assert.Equal(t, []string{"src/**"}, m.Tool.Include)
	require.Len(t, m.Mappings, 4)
	assert.True(t, m.HasMappings())

	bySource := make(map[string]*mappings.ExplicitMapping)
	for _, mapping := range m.Mappings {
		bySource[mapping.Source] = mapping
	}

	db := bySource["infra:output:db_endpoint"]
	require.NotNil(t, db)
	assert.Equal(t, mappings.MappingProvides, db.Type)
	assert.Equal(t, "env:DATABASE_URL", db.Target)

	ci := bySource["env:CI_BUILD_NUMBER"]
	require.NotNil(t, ci)
	assert.True(t, ci.IsIgnore())
	assert.Equal(t, "set by CI", ci.Reason)

	dd := bySource["infra:output:dd_endpoint"]
	require.NotNil(t, dd)
	assert.Equal(t, "env:DD_API_ENDPOINT", dd.Target)
	assert.Equal(t, "platform managed", dd.Reason)
}

func TestLoadMissingFileYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), m.Project.Name)
	assert.Equal(t, 0.5, m.Tool.MinConfidence)
	assert.False(t, m.HasMappings())
}

func TestLoadDefaultsMinConfidence(t *testing.T) {
	path := writeManifest(t, `
[project]
name = "svc"
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Tool.MinConfidence)
}

func TestLoadMalformedMapping(t *testing.T) {
	path := writeManifest(t, `
[mappings]
"env:BROKEN" = { reason = "no target and not ignored" }
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env:BROKEN")
}

func TestLoadMalformedToml(t *testing.T) {
	path := writeManifest(t, `[project`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	m := Empty("payment-service")
	m.Mappings = []*mappings.ExplicitMapping{
		{Source: "infra:output:db_endpoint", Target: "env:DATABASE_URL", Type: mappings.MappingProvides},
		{Source: "env:CI_TOKEN", Type: mappings.MappingIgnore, Reason: "CI-injected"},
		{Source: "infra:output:dd_endpoint", Target: "env:DD_API_ENDPOINT", Type: mappings.MappingProvides, Reason: "platform"},
	}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "payment-service", loaded.Project.Name)
	require.Len(t, loaded.Mappings, 3)

	bySource := make(map[string]*mappings.ExplicitMapping)
	for _, mapping := range loaded.Mappings {
		bySource[mapping.Source] = mapping
	}
	assert.Equal(t, "env:DATABASE_URL", bySource["infra:output:db_endpoint"].Target)
	assert.True(t, bySource["env:CI_TOKEN"].IsIgnore())
	assert.Equal(t, "platform", bySource["infra:output:dd_endpoint"].Reason)
}
