package stitch

import (
	"sort"
	"strings"

	"jnkn/internal/confidence"
	"jnkn/internal/graph"
	"jnkn/internal/model"
)

// Rule proposes stitched edges for a graph. Rules never mutate the graph;
// insertion and deduplication belong to the Stitcher.
type Rule interface {
	Name() string
	Apply(g *graph.DependencyGraph) ([]*model.Edge, error)
}

// EnvVarToInfraRule connects infrastructure outputs and config keys
// (providers) to the environment variables that consume them. Direction is
// always provider -> consumer with relationship Provides, and at most one
// edge is proposed per consumer: the highest-scoring candidate, if it clears
// the confidence floor.
type EnvVarToInfraRule struct {
	config *MatchConfig
	calc   *confidence.Calculator
}

// NewEnvVarToInfraRule builds the rule; nil config selects the defaults.
func NewEnvVarToInfraRule(config *MatchConfig) *EnvVarToInfraRule {
	if config == nil {
		config = DefaultMatchConfig()
	}
	return &EnvVarToInfraRule{config: config, calc: confidence.NewCalculator(config.Confidence)}
}

func (r *EnvVarToInfraRule) Name() string { return "env_var_to_infra" }

func (r *EnvVarToInfraRule) Apply(g *graph.DependencyGraph) ([]*model.Edge, error) {
	consumers := g.GetNodesByType(model.NodeEnvVar)
	providers := g.GetNodesByType(model.NodeInfraResource)
	providers = append(providers, g.GetNodesByType(model.NodeConfigKey)...)
	if len(consumers) == 0 || len(providers) == 0 {
		return nil, nil
	}

	byNormalized := make(map[string][]*model.Node)
	byToken := make(map[string][]*model.Node)
	for _, p := range providers {
		norm := model.Normalize(p.Name)
		byNormalized[norm] = append(byNormalized[norm], p)
		for t := range significantTokens(p.EffectiveTokens(), r.config.MinTokenLength) {
			byToken[t] = append(byToken[t], p)
		}
	}

	var edges []*model.Edge
	for _, consumer := range consumers {
		candidates := make(map[string]*model.Node)
		viaNormalized := make(map[string]bool)

		for _, p := range byNormalized[model.Normalize(consumer.Name)] {
			candidates[p.Id] = p
			viaNormalized[p.Id] = true
		}
		for t := range significantTokens(consumer.EffectiveTokens(), r.config.MinTokenLength) {
			for _, p := range byToken[t] {
				if _, ok := candidates[p.Id]; !ok {
					candidates[p.Id] = p
				}
			}
		}
		if len(candidates) == 0 {
			continue
		}

		ids := make([]string, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		alternatives := len(candidates) - 1
		var best *model.MatchResult
		for _, id := range ids {
			match := r.scoreCandidate(candidates[id], consumer, viaNormalized[id], alternatives)
			if match.IsBetterThan(best) {
				best = match
			}
		}

		if best != nil && best.Confidence >= r.config.MinConfidence {
			edges = append(edges, best.ToEdge(model.RelProvides, r.Name()))
		}
	}
	return edges, nil
}

// scoreCandidate scores one provider against one consumer. Candidates found
// through normalized-name equality are scored without a token intersection:
// the names already agree modulo separators and case, so token-level
// penalties (which would re-punish fragments like "db") must not fire.
func (r *EnvVarToInfraRule) scoreCandidate(provider, consumer *model.Node, normalized bool, alternatives int) *model.MatchResult {
	in := confidence.Input{
		SourceName:            provider.Name,
		TargetName:            consumer.Name,
		AlternativeMatchCount: alternatives,
		SourceNodeId:          provider.Id,
		TargetNodeId:          consumer.Id,
	}
	strategy := model.MatchTokenOverlap
	if normalized {
		in.MatchedTokens = []string{}
		strategy = model.MatchNormalized
		if provider.Name == consumer.Name {
			strategy = model.MatchExact
		}
	} else {
		in.SourceTokens = provider.EffectiveTokens()
		in.TargetTokens = consumer.EffectiveTokens()
	}

	result := r.calc.Calculate(in)
	return &model.MatchResult{
		SourceNode:    provider.Id,
		TargetNode:    consumer.Id,
		Strategy:      strategy,
		Confidence:    result.Score,
		MatchedTokens: result.MatchedTokens,
		Explanation:   result.Explanation,
	}
}

// resourceHierarchy orders infrastructure resource kinds from foundational
// to dependent; a Configures edge always points from the higher level to the
// lower one.
var resourceHierarchy = []struct {
	kind  string
	level int
}{
	{"vpc", 10},
	{"subnet", 9},
	{"security_group", 8},
	{"iam", 7},
	{"kms", 6},
	{"rds", 5},
	{"db", 5},
	{"instance", 4},
	{"lambda", 3},
	{"s3", 3},
}

func hierarchyLevel(name string) int {
	lower := strings.ToLower(name)
	level := 0
	for _, h := range resourceHierarchy {
		if strings.Contains(lower, h.kind) && h.level > level {
			level = h.level
		}
	}
	return level
}

// InfraToInfraRule relates infrastructure resources that share naming,
// proposing Configures edges directed by the resource-type hierarchy.
type InfraToInfraRule struct {
	config *MatchConfig
	calc   *confidence.Calculator
}

// NewInfraToInfraRule builds the rule; nil config selects the defaults.
func NewInfraToInfraRule(config *MatchConfig) *InfraToInfraRule {
	if config == nil {
		config = DefaultMatchConfig()
	}
	return &InfraToInfraRule{config: config, calc: confidence.NewCalculator(config.Confidence)}
}

func (r *InfraToInfraRule) Name() string { return "infra_to_infra" }

func (r *InfraToInfraRule) Apply(g *graph.DependencyGraph) ([]*model.Edge, error) {
	resources := g.GetNodesByType(model.NodeInfraResource)
	if len(resources) < 2 {
		return nil, nil
	}

	tokenSets := make(map[string]map[string]struct{}, len(resources))
	byToken := make(map[string][]*model.Node)
	for _, res := range resources {
		set := significantTokens(res.EffectiveTokens(), r.config.MinTokenLength)
		tokenSets[res.Id] = set
		for t := range set {
			byToken[t] = append(byToken[t], res)
		}
	}

	seen := make(map[[2]string]struct{})
	var edges []*model.Edge
	for _, token := range sortedKeys(byToken) {
		group := byToken[token]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				key := pairKey(a.Id, b.Id)
				if _, done := seen[key]; done {
					continue
				}
				seen[key] = struct{}{}

				shared, jaccard := tokenOverlap(tokenSets[a.Id], tokenSets[b.Id])
				if len(shared) < r.config.MinTokenOverlap || jaccard < 0.3 {
					continue
				}

				source, target := orientPair(a, b)
				result := r.calc.Calculate(confidence.Input{
					SourceName:    source.Name,
					TargetName:    target.Name,
					SourceTokens:  source.EffectiveTokens(),
					TargetTokens:  target.EffectiveTokens(),
					MatchedTokens: shared,
					SourceNodeId:  source.Id,
					TargetNodeId:  target.Id,
				})
				if result.Score < r.config.MinConfidence {
					continue
				}

				match := &model.MatchResult{
					SourceNode:    source.Id,
					TargetNode:    target.Id,
					Strategy:      model.MatchTokenOverlap,
					Confidence:    result.Score,
					MatchedTokens: shared,
					Explanation:   result.Explanation,
				}
				edges = append(edges, match.ToEdge(model.RelConfigures, r.Name()))
			}
		}
	}
	return edges, nil
}

// orientPair picks the edge direction for a resource pair: the node higher
// in the hierarchy configures the lower one. Ties keep the given order.
func orientPair(a, b *model.Node) (*model.Node, *model.Node) {
	if hierarchyLevel(b.Name) > hierarchyLevel(a.Name) {
		return b, a
	}
	return a, b
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func sortedKeys(m map[string][]*model.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
