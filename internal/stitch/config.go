package stitch

import (
	"sort"

	"jnkn/internal/confidence"
)

// MatchConfig carries the tunable thresholds for all stitching rules. It is
// injected at construction time so matching stays deterministic and testable
// without global state.
type MatchConfig struct {
	// MinConfidence is the score floor below which a proposed edge is
	// discarded.
	MinConfidence float64
	// MinTokenOverlap is the minimum number of shared significant tokens
	// for resource-to-resource pairing.
	MinTokenOverlap int
	// MinTokenLength is the shortest token still considered significant for
	// candidate generation.
	MinTokenLength int
	// Confidence configures the scoring calculator. Nil selects its
	// defaults.
	Confidence *confidence.Config
}

// DefaultMatchConfig returns the reference thresholds.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		MinConfidence:   0.5,
		MinTokenOverlap: 2,
		MinTokenLength:  2,
		Confidence:      confidence.DefaultConfig(),
	}
}

// significantTokens filters a token list down to entries of at least minLen
// characters, deduplicated.
func significantTokens(tokens []string, minLen int) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if len(t) >= minLen {
			out[t] = struct{}{}
		}
	}
	return out
}

// tokenOverlap intersects two significant-token sets and reports the shared
// tokens (sorted) plus the Jaccard similarity of the sets.
func tokenOverlap(a, b map[string]struct{}) ([]string, float64) {
	if len(a) == 0 || len(b) == 0 {
		return nil, 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var shared []string
	for t := range small {
		if _, ok := large[t]; ok {
			shared = append(shared, t)
		}
	}
	sort.Strings(shared)

	union := len(a) + len(b) - len(shared)
	if union == 0 {
		return shared, 0
	}
	return shared, float64(len(shared)) / float64(union)
}
