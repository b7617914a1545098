package confidence

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"jnkn/internal/model"
)

// SignalResult records one signal's evaluation.
type SignalResult struct {
	Signal        Signal   `json:"signal"`
	Weight        float64  `json:"weight"`
	Matched       bool     `json:"matched"`
	Details       string   `json:"details,omitempty"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}

// PenaltyResult records one penalty's evaluation. A multiplier of 1.0 means
// the penalty did not apply.
type PenaltyResult struct {
	Penalty        Penalty  `json:"penalty"`
	Multiplier     float64  `json:"multiplier"`
	Reason         string   `json:"reason,omitempty"`
	AffectedTokens []string `json:"affectedTokens,omitempty"`
}

// Result is the complete outcome of a confidence calculation: the bounded
// score plus everything needed to explain it.
type Result struct {
	Score         float64         `json:"score"`
	Signals       []SignalResult  `json:"signals"`
	Penalties     []PenaltyResult `json:"penalties"`
	Explanation   string          `json:"explanation"`
	MatchedTokens []string        `json:"matchedTokens"`
	SourceNodeId  string          `json:"sourceNodeId,omitempty"`
	TargetNodeId  string          `json:"targetNodeId,omitempty"`
}

// Level buckets a score into a coarse qualitative label.
func Level(score float64) string {
	switch {
	case score >= 0.8:
		return "HIGH"
	case score >= 0.6:
		return "MEDIUM"
	case score >= 0.4:
		return "LOW"
	default:
		return "VERY LOW"
	}
}

// Input carries the names, tokens, and context for one match attempt.
type Input struct {
	SourceName string
	TargetName string
	// SourceTokens/TargetTokens default to tokenizing the names.
	SourceTokens []string
	TargetTokens []string
	// MatchedTokens, when nil, is computed as the token-set intersection.
	MatchedTokens []string
	// AlternativeMatchCount is how many other candidates competed for the
	// same source; more than two triggers the compounding ambiguity penalty.
	AlternativeMatchCount int
	SourceNodeId          string
	TargetNodeId          string
}

// Calculator scores matches from multiple signals with compounding
// penalties. Pure compute over its injected config; safe for concurrent use.
type Calculator struct {
	config *Config
}

// NewCalculator creates a calculator. A nil config selects the defaults.
func NewCalculator(config *Config) *Calculator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Calculator{config: config}
}

// Calculate evaluates every signal and penalty for the input and returns the
// bounded, explainable score.
func (c *Calculator) Calculate(in Input) *Result {
	sourceTokens := in.SourceTokens
	if sourceTokens == nil {
		sourceTokens = model.Tokenize(in.SourceName)
	}
	targetTokens := in.TargetTokens
	if targetTokens == nil {
		targetTokens = model.Tokenize(in.TargetName)
	}

	matched := in.MatchedTokens
	if matched == nil {
		matched = intersect(sourceTokens, targetTokens)
	}

	signals := c.evaluateSignals(in.SourceName, in.TargetName, matched)
	penalties := c.evaluatePenalties(matched, in.AlternativeMatchCount)

	base := c.baseScore(signals)
	final := applyPenalties(base, penalties)

	result := &Result{
		Score:         final,
		MatchedTokens: matched,
		SourceNodeId:  in.SourceNodeId,
		TargetNodeId:  in.TargetNodeId,
	}
	for _, s := range signals {
		if s.Matched {
			result.Signals = append(result.Signals, s)
		}
	}
	for _, p := range penalties {
		if p.Multiplier < 1.0 {
			result.Penalties = append(result.Penalties, p)
		}
	}
	result.Explanation = buildExplanation(in.SourceName, in.TargetName, result)
	return result
}

func (c *Calculator) evaluateSignals(sourceName, targetName string, matched []string) []SignalResult {
	var results []SignalResult
	weights := c.config.SignalWeights

	exact := sourceName == targetName
	results = append(results, SignalResult{
		Signal:  SignalExactMatch,
		Weight:  weights[SignalExactMatch],
		Matched: exact,
		Details: detailIf(exact, "'%s' == '%s'", sourceName, targetName),
	})

	sourceNorm := model.Normalize(sourceName)
	targetNorm := model.Normalize(targetName)
	// Normalized equality is not double-counted when already exact.
	normalized := sourceNorm == targetNorm
	results = append(results, SignalResult{
		Signal:  SignalNormalizedMatch,
		Weight:  weights[SignalNormalizedMatch],
		Matched: normalized && !exact,
		Details: detailIf(normalized, "'%s' == '%s'", sourceNorm, targetNorm),
	})

	var significant []string
	for _, t := range matched {
		if !c.config.isCommon(t) && len(t) >= c.config.ShortTokenLength {
			significant = append(significant, t)
		}
	}
	highOverlap := len(significant) >= c.config.MinTokenOverlapHigh
	mediumOverlap := len(significant) >= c.config.MinTokenOverlapMedium

	results = append(results, SignalResult{
		Signal:        SignalTokenOverlapHigh,
		Weight:        weights[SignalTokenOverlapHigh],
		Matched:       highOverlap,
		Details:       detailIf(highOverlap, "%d significant tokens: %v", len(significant), significant),
		MatchedTokens: tokensIf(highOverlap, significant),
	})
	results = append(results, SignalResult{
		Signal:        SignalTokenOverlapMedium,
		Weight:        weights[SignalTokenOverlapMedium],
		Matched:       mediumOverlap && !highOverlap,
		Details:       detailIf(mediumOverlap && !highOverlap, "%d significant tokens: %v", len(significant), significant),
		MatchedTokens: tokensIf(mediumOverlap && !highOverlap, significant),
	})

	suffix := strings.HasSuffix(targetNorm, sourceNorm) && len(sourceNorm) >= 4 && !normalized
	results = append(results, SignalResult{
		Signal:  SignalSuffixMatch,
		Weight:  weights[SignalSuffixMatch],
		Matched: suffix,
		Details: detailIf(suffix, "'%s' ends with '%s'", targetNorm, sourceNorm),
	})

	prefix := strings.HasPrefix(targetNorm, sourceNorm) && len(sourceNorm) >= 4 && !normalized
	results = append(results, SignalResult{
		Signal:  SignalPrefixMatch,
		Weight:  weights[SignalPrefixMatch],
		Matched: prefix,
		Details: detailIf(prefix, "'%s' starts with '%s'", targetNorm, sourceNorm),
	})

	contains := strings.Contains(targetNorm, sourceNorm) && len(sourceNorm) >= 4 &&
		!normalized && !suffix && !prefix
	results = append(results, SignalResult{
		Signal:  SignalContains,
		Weight:  weights[SignalContains],
		Matched: contains,
		Details: detailIf(contains, "'%s' contains '%s'", targetNorm, sourceNorm),
	})

	anyMatched := false
	for _, r := range results {
		if r.Matched {
			anyMatched = true
			break
		}
	}
	single := len(matched) == 1 && !anyMatched
	results = append(results, SignalResult{
		Signal:        SignalSingleToken,
		Weight:        weights[SignalSingleToken],
		Matched:       single,
		Details:       detailIf(single, "single token match: %v", matched),
		MatchedTokens: tokensIf(single, matched),
	})

	return results
}

func (c *Calculator) evaluatePenalties(matched []string, alternatives int) []PenaltyResult {
	var results []PenaltyResult
	multipliers := c.config.PenaltyMultipliers

	var short []string
	for _, t := range matched {
		if len(t) < c.config.ShortTokenLength {
			short = append(short, t)
		}
	}
	if len(short) > 0 {
		results = append(results, PenaltyResult{
			Penalty:        PenaltyShortToken,
			Multiplier:     multipliers[PenaltyShortToken],
			Reason:         fmt.Sprintf("short tokens (< %d chars): %v", c.config.ShortTokenLength, short),
			AffectedTokens: short,
		})
	} else {
		results = append(results, PenaltyResult{Penalty: PenaltyShortToken, Multiplier: 1.0, Reason: "no short tokens"})
	}

	var common, nonCommon []string
	for _, t := range matched {
		if c.config.isCommon(t) {
			common = append(common, t)
		} else {
			nonCommon = append(nonCommon, t)
		}
	}
	// The common-token penalty only fires when nothing distinctive matched.
	if len(common) > 0 && len(nonCommon) == 0 {
		results = append(results, PenaltyResult{
			Penalty:        PenaltyCommonToken,
			Multiplier:     multipliers[PenaltyCommonToken],
			Reason:         fmt.Sprintf("all matched tokens are common: %v", common),
			AffectedTokens: common,
		})
	} else {
		results = append(results, PenaltyResult{Penalty: PenaltyCommonToken, Multiplier: 1.0, Reason: "has non-common tokens"})
	}

	if alternatives > 2 {
		// Compounds exponentially with the number of competing candidates,
		// floored at 0.3.
		penalty := math.Pow(multipliers[PenaltyAmbiguity], 1+float64(alternatives-2)*0.2)
		results = append(results, PenaltyResult{
			Penalty:    PenaltyAmbiguity,
			Multiplier: math.Max(0.3, penalty),
			Reason:     fmt.Sprintf("source has %d potential matches", alternatives),
		})
	} else {
		results = append(results, PenaltyResult{Penalty: PenaltyAmbiguity, Multiplier: 1.0, Reason: "low ambiguity"})
	}

	var lowValue, highValue []string
	for _, t := range matched {
		if c.config.isLowValue(t) {
			lowValue = append(lowValue, t)
		} else if !c.config.isCommon(t) {
			highValue = append(highValue, t)
		}
	}
	if len(lowValue) > 0 && len(lowValue) > len(highValue) {
		results = append(results, PenaltyResult{
			Penalty:        PenaltyLowValueToken,
			Multiplier:     multipliers[PenaltyLowValueToken],
			Reason:         fmt.Sprintf("mostly low-value tokens: %v", lowValue),
			AffectedTokens: lowValue,
		})
	} else {
		results = append(results, PenaltyResult{Penalty: PenaltyLowValueToken, Multiplier: 1.0, Reason: "has high-value tokens"})
	}

	return results
}

// baseScore takes the dominant signal's weight as the floor and adds a
// small capped bonus per corroborating signal. Weights are never summed, so
// many weak signals cannot inflate the score.
func (c *Calculator) baseScore(signals []SignalResult) float64 {
	var matched []float64
	for _, s := range signals {
		if s.Matched {
			matched = append(matched, s.Weight)
		}
	}
	if len(matched) == 0 {
		return 0.0
	}

	maxWeight := matched[0]
	for _, w := range matched[1:] {
		if w > maxWeight {
			maxWeight = w
		}
	}
	bonus := math.Min(0.1, float64(len(matched)-1)*0.02)
	return math.Min(1.0, maxWeight+bonus)
}

func applyPenalties(base float64, penalties []PenaltyResult) float64 {
	score := base
	for _, p := range penalties {
		score *= p.Multiplier
	}
	return math.Round(score*10000) / 10000
}

func buildExplanation(sourceName, targetName string, result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match: %s -> %s\n", sourceName, targetName)
	fmt.Fprintf(&b, "Confidence: %.2f\n\nSignals:\n", result.Score)

	if len(result.Signals) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range result.Signals {
		fmt.Fprintf(&b, "  + %s (%.2f)\n", s.Signal, s.Weight)
		if s.Details != "" {
			fmt.Fprintf(&b, "    -> %s\n", s.Details)
		}
	}

	if len(result.Penalties) == 0 {
		b.WriteString("\nPenalties: none\n")
	} else {
		b.WriteString("\nPenalties:\n")
		for _, p := range result.Penalties {
			fmt.Fprintf(&b, "  - %s (x%.2f)\n", p.Penalty, p.Multiplier)
			if p.Reason != "" {
				fmt.Fprintf(&b, "    -> %s\n", p.Reason)
			}
		}
	}
	return b.String()
}

// Explain renders a detailed, deterministic breakdown of a result for CLI
// output, including the qualitative bucket.
func (c *Calculator) Explain(result *Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	b.WriteString(rule + "\nMATCH EXPLANATION\n" + rule + "\n\n")
	if result.SourceNodeId != "" {
		fmt.Fprintf(&b, "Source: %s\n", result.SourceNodeId)
	}
	if result.TargetNodeId != "" {
		fmt.Fprintf(&b, "Target: %s\n", result.TargetNodeId)
	}
	if len(result.MatchedTokens) > 0 {
		fmt.Fprintf(&b, "Matched tokens: %v\n", result.MatchedTokens)
	}

	b.WriteString("\n" + thin + "\nCONFIDENCE CALCULATION\n" + thin + "\n\nBase signals:\n")
	if len(result.Signals) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range result.Signals {
		fmt.Fprintf(&b, "  [+%.2f] %s\n", s.Weight, s.Signal)
		if s.Details != "" {
			fmt.Fprintf(&b, "         %s\n", s.Details)
		}
	}

	b.WriteString("\nPenalties:\n")
	if len(result.Penalties) == 0 {
		b.WriteString("  none applied\n")
	}
	for _, p := range result.Penalties {
		fmt.Fprintf(&b, "  [x%.2f] %s\n", p.Multiplier, p.Penalty)
		if p.Reason != "" {
			fmt.Fprintf(&b, "         %s\n", p.Reason)
		}
	}

	fmt.Fprintf(&b, "\nFinal confidence: %.2f (%s)\n\n%s\n", result.Score, Level(result.Score), rule)
	return b.String()
}

// intersect returns the sorted set intersection of two token lists.
func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, t := range b {
		if _, ok := set[t]; ok {
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

func detailIf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

func tokensIf(cond bool, tokens []string) []string {
	if !cond {
		return nil
	}
	return tokens
}
