package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"jnkn/internal/mappings"
)

// FileName is the manifest file looked up at a project root.
const FileName = "jnkn.toml"

// Project is the [project] section.
type Project struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description,omitempty"`
}

// ToolSettings is the [tool.jnkn] section: scan filters and the fuzzy
// matching threshold.
type ToolSettings struct {
	MinConfidence float64  `toml:"min_confidence"`
	Include       []string `toml:"include,omitempty"`
	Exclude       []string `toml:"exclude,omitempty"`
}

// Manifest is the parsed jnkn.toml: project identity, explicit mappings,
// and tool settings.
type Manifest struct {
	Project  Project
	Mappings []*mappings.ExplicitMapping
	Tool     ToolSettings
}

// Empty returns a manifest with defaults and no mappings.
func Empty(name string) *Manifest {
	return &Manifest{
		Project: Project{Name: name, Version: "0.0.0"},
		Tool:    ToolSettings{MinConfidence: 0.5},
	}
}

// HasMappings reports whether any explicit mappings are declared.
func (m *Manifest) HasMappings() bool {
	return len(m.Mappings) > 0
}

type rawManifest struct {
	Project  Project                   `toml:"project"`
	Mappings map[string]toml.Primitive `toml:"mappings"`
	Tool     struct {
		Jnkn ToolSettings `toml:"jnkn"`
	} `toml:"tool"`
}

type rawMappingTable struct {
	Target string `toml:"target"`
	Ignore bool   `toml:"ignore"`
	Reason string `toml:"reason"`
}

// Load parses the manifest at path. A missing file yields an empty manifest
// named after the containing directory; a malformed one is an error.
//
// Mapping values come in two shapes:
//
//	"infra:output:db_endpoint" = "env:DATABASE_URL"
//	"env:CI_BUILD_NUMBER" = { ignore = true, reason = "set by CI" }
func Load(path string) (*Manifest, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Empty(filepath.Base(filepath.Dir(path))), nil
	}

	var raw rawManifest
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	m := &Manifest{Project: raw.Project, Tool: raw.Tool.Jnkn}
	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(filepath.Dir(path))
	}
	if m.Project.Version == "" {
		m.Project.Version = "0.0.0"
	}
	if !meta.IsDefined("tool", "jnkn", "min_confidence") {
		m.Tool.MinConfidence = 0.5
	}

	sources := make([]string, 0, len(raw.Mappings))
	for source := range raw.Mappings {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		mapping, err := decodeMapping(&meta, source, raw.Mappings[source])
		if err != nil {
			return nil, fmt.Errorf("invalid mapping in %s: %w", path, err)
		}
		m.Mappings = append(m.Mappings, mapping)
	}
	return m, nil
}

func decodeMapping(meta *toml.MetaData, source string, prim toml.Primitive) (*mappings.ExplicitMapping, error) {
	var target string
	if err := meta.PrimitiveDecode(prim, &target); err == nil {
		return &mappings.ExplicitMapping{
			Source: source,
			Target: target,
			Type:   mappings.MappingProvides,
		}, nil
	}

	var table rawMappingTable
	if err := meta.PrimitiveDecode(prim, &table); err != nil {
		return nil, fmt.Errorf("mapping %q: %w", source, err)
	}
	if table.Ignore {
		return &mappings.ExplicitMapping{
			Source: source,
			Type:   mappings.MappingIgnore,
			Reason: table.Reason,
		}, nil
	}
	if table.Target == "" {
		return nil, fmt.Errorf("mapping %q: needs a target or ignore = true", source)
	}
	return &mappings.ExplicitMapping{
		Source: source,
		Target: table.Target,
		Type:   mappings.MappingProvides,
		Reason: table.Reason,
	}, nil
}

// Save writes the manifest back to path.
func (m *Manifest) Save(path string) error {
	doc := map[string]interface{}{
		"project": m.Project,
	}
	if m.Tool.MinConfidence != 0 || len(m.Tool.Include) > 0 || len(m.Tool.Exclude) > 0 {
		doc["tool"] = map[string]interface{}{"jnkn": m.Tool}
	}
	if len(m.Mappings) > 0 {
		table := make(map[string]interface{}, len(m.Mappings))
		for _, mapping := range m.Mappings {
			table[mapping.Source] = encodeMapping(mapping)
		}
		doc["mappings"] = table
	}

	data, err := gotoml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func encodeMapping(mapping *mappings.ExplicitMapping) interface{} {
	if mapping.IsIgnore() {
		out := map[string]interface{}{"ignore": true}
		if mapping.Reason != "" {
			out["reason"] = mapping.Reason
		}
		return out
	}
	if mapping.Reason != "" {
		return map[string]interface{}{"target": mapping.Target, "reason": mapping.Reason}
	}
	return mapping.Target
}
