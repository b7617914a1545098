package stitch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jnkn/internal/graph"
	"jnkn/internal/logging"
	"jnkn/internal/mappings"
	"jnkn/internal/model"
)

func envVar(id, name string) *model.Node {
	return model.NewNode(id, name, model.NodeEnvVar)
}

func infraResource(id, name string) *model.Node {
	return model.NewNode(id, name, model.NodeInfraResource)
}

func TestEnvVarRuleNormalizedMatch(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_db_host", "payment_db_host"))
	g.AddNode(envVar("env:PAYMENT_DB_HOST", "PAYMENT_DB_HOST"))

	edges, err := NewEnvVarToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	edge := edges[0]
	assert.Equal(t, "infra:payment_db_host", edge.SourceId)
	assert.Equal(t, "env:PAYMENT_DB_HOST", edge.TargetId)
	assert.Equal(t, model.RelProvides, edge.Type)
	assert.Equal(t, model.MatchNormalized, edge.MatchStrategy)
	assert.GreaterOrEqual(t, edge.Confidence, 0.8)
	assert.Equal(t, "env_var_to_infra", edge.Metadata["rule"])
}

func TestEnvVarRuleExactMatch(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:DATABASE_URL", "DATABASE_URL"))
	g.AddNode(envVar("env:DATABASE_URL", "DATABASE_URL"))

	edges, err := NewEnvVarToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.MatchExact, edges[0].MatchStrategy)
	assert.InDelta(t, 1.0, edges[0].Confidence, 0.0001)
}

func TestEnvVarRuleOneEdgePerConsumer(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_database", "payment_database"))
	g.AddNode(infraResource("infra:payment_database_replica", "payment_database_replica"))
	g.AddNode(envVar("env:PAYMENT_DATABASE", "PAYMENT_DATABASE"))

	edges, err := NewEnvVarToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	// The normalized-equal provider beats the token-overlap one.
	assert.Equal(t, "infra:payment_database", edges[0].SourceId)
}

func TestEnvVarRuleBelowThresholdEmitsNothing(t *testing.T) {
	g := graph.New()
	// Shares only the short, common token "db".
	g.AddNode(infraResource("infra:db_cluster", "db_cluster"))
	g.AddNode(envVar("env:DB_TIMEOUT", "DB_TIMEOUT"))

	edges, err := NewEnvVarToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestEnvVarRuleNoConsumers(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_db", "payment_db"))

	edges, err := NewEnvVarToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestInfraRuleSharedNaming(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_database", "payment_database"))
	g.AddNode(infraResource("infra:payment_database_replica", "payment_database_replica"))

	edges, err := NewInfraToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.RelConfigures, edges[0].Type)
	assert.GreaterOrEqual(t, edges[0].Confidence, 0.5)
}

func TestInfraRuleHierarchyDirection(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_network_subnet", "payment_network_subnet"))
	g.AddNode(infraResource("infra:payment_vpc_network", "payment_vpc_network"))

	edges, err := NewInfraToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	// vpc outranks subnet, so the vpc side configures.
	assert.Equal(t, "infra:payment_vpc_network", edges[0].SourceId)
	assert.Equal(t, "infra:payment_network_subnet", edges[0].TargetId)
}

func TestInfraRuleInsufficientOverlap(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_vpc", "payment_vpc"))
	g.AddNode(infraResource("infra:payment_cache", "payment_cache"))

	edges, err := NewInfraToInfraRule(nil).Apply(g)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestStitcherIdempotent(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_db_host", "payment_db_host"))
	g.AddNode(envVar("env:PAYMENT_DB_HOST", "PAYMENT_DB_HOST"))

	s := NewStitcher(nil, nil)
	first := s.Stitch(g)
	require.Len(t, first.NewEdges, 1)

	second := s.Stitch(g)
	assert.Empty(t, second.NewEdges)
	assert.Equal(t, 1, g.EdgeCount())
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }
func (failingRule) Apply(*graph.DependencyGraph) ([]*model.Edge, error) {
	return nil, errors.New("boom")
}

func TestStitcherRuleFailureDoesNotAbort(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_db_host", "payment_db_host"))
	g.AddNode(envVar("env:PAYMENT_DB_HOST", "PAYMENT_DB_HOST"))

	s := &Stitcher{rules: []Rule{failingRule{}, NewEnvVarToInfraRule(nil)}, logger: logging.NewDiscardLogger()}
	result := s.Stitch(g)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "failing")
	assert.Len(t, result.NewEdges, 1)
	require.Len(t, result.PerRule, 2)
	assert.Error(t, result.PerRule[0].Err)
	assert.NoError(t, result.PerRule[1].Err)
}

func TestEnhancedExplicitMappingWins(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:output:db_connection_string", "db_connection_string"))
	// A fuzzy rule on its own would connect this one to DATABASE_URL.
	g.AddNode(infraResource("infra:database_url", "database_url"))
	g.AddNode(envVar("env:DATABASE_URL", "DATABASE_URL"))

	s := NewEnhancedStitcher([]*mappings.ExplicitMapping{
		{Source: "infra:output:db_connection_string", Target: "env:DATABASE_URL", Type: mappings.MappingProvides},
	}, nil, nil)
	result := s.Stitch(g)

	require.Len(t, result.ExplicitEdges, 1)
	explicit := result.ExplicitEdges[0]
	assert.Equal(t, "infra:output:db_connection_string", explicit.SourceId)
	assert.InDelta(t, 1.0, explicit.Confidence, 0.0001)
	assert.Equal(t, "explicit_mapping", explicit.Metadata["rule"])

	// The competing fuzzy edge into the mapped target is suppressed.
	incoming := g.InEdges("env:DATABASE_URL")
	require.Len(t, incoming, 1)
	assert.Equal(t, "infra:output:db_connection_string", incoming[0].SourceId)
	assert.Equal(t, 1, result.FilteredCount)
}

func TestEnhancedPatternMappingExpansion(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:output:redis_url", "redis_url"))
	g.AddNode(infraResource("infra:output:redis_port", "redis_port"))
	g.AddNode(envVar("env:REDIS_URL", "REDIS_URL"))
	g.AddNode(envVar("env:REDIS_PORT", "REDIS_PORT"))
	g.AddNode(envVar("env:REDIS_HOST", "REDIS_HOST"))

	s := NewEnhancedStitcher([]*mappings.ExplicitMapping{
		{Source: "infra:output:redis_*", Target: "env:REDIS_*", Type: mappings.MappingProvides},
	}, nil, nil)
	result := s.Stitch(g)

	require.Len(t, result.ExplicitEdges, 2)
	pairs := make(map[[2]string]bool)
	for _, e := range result.ExplicitEdges {
		pairs[[2]string{e.SourceId, e.TargetId}] = true
	}
	assert.True(t, pairs[[2]string{"infra:output:redis_url", "env:REDIS_URL"}])
	assert.True(t, pairs[[2]string{"infra:output:redis_port", "env:REDIS_PORT"}])
	assert.Empty(t, g.InEdges("env:REDIS_HOST"))
}

func TestEnhancedIgnoreSuppressesFuzzyEdge(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:ci_token", "ci_token"))
	g.AddNode(envVar("env:CI_TOKEN", "CI_TOKEN"))

	s := NewEnhancedStitcher([]*mappings.ExplicitMapping{
		{Source: "env:CI_TOKEN", Type: mappings.MappingIgnore, Reason: "CI-injected"},
	}, nil, nil)
	result := s.Stitch(g)

	assert.Empty(t, result.NewEdges)
	assert.Empty(t, g.InEdges("env:CI_TOKEN"))
	assert.Equal(t, 1, result.IgnoredCount)
}

func TestEnhancedStitchIdempotent(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:output:redis_url", "redis_url"))
	g.AddNode(envVar("env:REDIS_URL", "REDIS_URL"))
	g.AddNode(infraResource("infra:payment_db_host", "payment_db_host"))
	g.AddNode(envVar("env:PAYMENT_DB_HOST", "PAYMENT_DB_HOST"))

	s := NewEnhancedStitcher([]*mappings.ExplicitMapping{
		{Source: "infra:output:redis_url", Target: "env:REDIS_URL", Type: mappings.MappingProvides},
	}, nil, nil)

	first := s.Stitch(g)
	require.Equal(t, 2, first.Total())

	second := s.Stitch(g)
	assert.Zero(t, second.Total())
}

func TestCheckMappingConflicts(t *testing.T) {
	g := graph.New()
	g.AddNode(infraResource("infra:payment_db_host", "payment_db_host"))
	g.AddNode(envVar("env:PAYMENT_DB_HOST", "PAYMENT_DB_HOST"))

	s := NewEnhancedStitcher([]*mappings.ExplicitMapping{
		{Source: "infra:payment_db_host", Target: "env:LEGACY_DB_HOST", Type: mappings.MappingProvides},
	}, nil, nil)

	conflicts := s.CheckMappingConflicts(g)
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], "env:PAYMENT_DB_HOST")
}

func TestSignificantTokenOverlap(t *testing.T) {
	a := significantTokens([]string{"payment", "db", "x"}, 2)
	b := significantTokens([]string{"payment", "db", "replica"}, 2)

	shared, jaccard := tokenOverlap(a, b)
	assert.Equal(t, []string{"db", "payment"}, shared)
	assert.InDelta(t, 2.0/3.0, jaccard, 0.0001)
}
