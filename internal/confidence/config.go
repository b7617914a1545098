package confidence

// Signal identifies a type of evidence that two artifacts are related.
type Signal string

const (
	SignalExactMatch         Signal = "exact_match"
	SignalNormalizedMatch    Signal = "normalized_match"
	SignalTokenOverlapHigh   Signal = "token_overlap_high"
	SignalTokenOverlapMedium Signal = "token_overlap_medium"
	SignalSuffixMatch        Signal = "suffix_match"
	SignalPrefixMatch        Signal = "prefix_match"
	SignalContains           Signal = "contains"
	SignalSingleToken        Signal = "single_token"
)

// Penalty identifies a factor that reduces match confidence.
type Penalty string

const (
	PenaltyShortToken    Penalty = "short_token"
	PenaltyCommonToken   Penalty = "common_token"
	PenaltyAmbiguity     Penalty = "ambiguity"
	PenaltyLowValueToken Penalty = "low_value_token"
)

// Config holds all tunables for confidence calculation. Every default lives
// here so scoring stays deterministic and testable; the calculator reads no
// package-level mutable state.
type Config struct {
	SignalWeights      map[Signal]float64
	PenaltyMultipliers map[Penalty]float64

	// Tokens shorter than this length trigger the short-token penalty and
	// do not count toward significant overlap.
	ShortTokenLength int
	// Significant-token counts for the two overlap tiers.
	MinTokenOverlapHigh   int
	MinTokenOverlapMedium int

	// CommonTokens carry weak signal on their own (id, host, url, ...).
	CommonTokens map[string]struct{}
	// LowValueTokens are environment/provider qualifiers (prod, aws, ...)
	// that suggest coincidence rather than relation.
	LowValueTokens map[string]struct{}
}

// DefaultConfig returns the reference tuning. The ambiguity formula and the
// base-score bonus cap are empirically tuned and kept exactly for output
// parity across versions.
func DefaultConfig() *Config {
	return &Config{
		SignalWeights: map[Signal]float64{
			SignalExactMatch:         1.0,
			SignalNormalizedMatch:    0.9,
			SignalTokenOverlapHigh:   0.8,
			SignalTokenOverlapMedium: 0.6,
			SignalSuffixMatch:        0.7,
			SignalPrefixMatch:        0.7,
			SignalContains:           0.4,
			SignalSingleToken:        0.2,
		},
		PenaltyMultipliers: map[Penalty]float64{
			PenaltyShortToken:    0.5,
			PenaltyCommonToken:   0.7,
			PenaltyAmbiguity:     0.8,
			PenaltyLowValueToken: 0.6,
		},
		ShortTokenLength:      4,
		MinTokenOverlapHigh:   3,
		MinTokenOverlapMedium: 2,
		CommonTokens: tokenSet(
			"id", "db", "host", "url", "key", "name", "type", "data",
			"info", "temp", "test", "api", "app", "env", "var", "val",
			"config", "setting", "path", "port", "user", "password",
			"secret", "token", "auth", "log", "file", "dir", "src",
			"dst", "in", "out", "err", "msg", "str", "int", "num",
		),
		LowValueTokens: tokenSet(
			"aws", "gcp", "azure", "main", "default", "primary",
			"production", "prod", "staging", "dev", "development",
			"internal", "external", "public", "private", "local",
			"remote", "master", "slave", "read", "write",
		),
	}
}

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func (c *Config) isCommon(token string) bool {
	_, ok := c.CommonTokens[token]
	return ok
}

func (c *Config) isLowValue(token string) bool {
	_, ok := c.LowValueTokens[token]
	return ok
}
