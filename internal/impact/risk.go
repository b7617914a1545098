package impact

import (
	"fmt"
	"math"

	"jnkn/internal/graph"
)

// RiskLevel represents the risk level of a change
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// RiskScore contains the calculated risk assessment
type RiskScore struct {
	Level       RiskLevel    `json:"level"`
	Score       float64      `json:"score"`
	Factors     []RiskFactor `json:"factors"`
	Explanation string       `json:"explanation"`
}

// RiskFactor represents a single contributing factor to risk
type RiskFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// ComputeRiskScore calculates risk for a blast-radius report:
// - Number of impacted artifacts
// - Spread across artifact domains
// - Confidence of the edges carrying the impact
// - Whether data or infra artifacts are in the fallout
func ComputeRiskScore(report *Report, g *graph.DependencyGraph) *RiskScore {
	factors := []RiskFactor{
		{Name: "impacted-count", Weight: 0.35, Value: calculateCountRisk(report)},
		{Name: "domain-spread", Weight: 0.25, Value: calculateDomainSpreadRisk(report)},
		{Name: "evidence-strength", Weight: 0.3, Value: calculateEvidenceStrength(report, g)},
		{Name: "domain-kind", Weight: 0.1, Value: calculateDomainKindRisk(report)},
	}

	totalScore := 0.0
	for _, factor := range factors {
		totalScore += factor.Weight * factor.Value
	}

	level := determineRiskLevel(totalScore)

	return &RiskScore{
		Level:       level,
		Score:       totalScore,
		Factors:     factors,
		Explanation: generateExplanation(level, report),
	}
}

// calculateCountRisk scores the raw fallout size.
// Logarithmic scale: 0 artifacts = 0.0, 1 = 0.23, 5 = 0.59, 20+ = 1.0
func calculateCountRisk(report *Report) float64 {
	count := report.TotalImpactedCount
	if count == 0 {
		return 0.0
	}

	score := math.Log10(float64(count)+1) / math.Log10(21)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// calculateDomainSpreadRisk scores how many artifact domains the impact
// crosses. Change contained to one domain is routine; fallout reaching
// three or more is the silent-breakage case this tool exists for.
func calculateDomainSpreadRisk(report *Report) float64 {
	domains := 0
	for _, artifacts := range report.Breakdown {
		if len(artifacts) > 0 {
			domains++
		}
	}

	switch {
	case domains == 0:
		return 0.0
	case domains == 1:
		return 0.2
	case domains == 2:
		return 0.5
	case domains == 3:
		return 0.8
	default:
		return 1.0
	}
}

// calculateEvidenceStrength averages the confidence of edges incident to
// impacted artifacts. High confidence means the predicted breakage rests
// on solid evidence rather than loose token matching.
func calculateEvidenceStrength(report *Report, g *graph.DependencyGraph) float64 {
	if g == nil || len(report.ImpactedArtifacts) == 0 {
		return 0.0
	}

	total := 0.0
	count := 0
	for _, id := range report.ImpactedArtifacts {
		for _, edge := range g.InEdges(id) {
			total += edge.Confidence
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return total / float64(count)
}

// calculateDomainKindRisk weights the kind of fallout: broken data assets
// and infrastructure fail silently, broken code fails loudly in CI.
func calculateDomainKindRisk(report *Report) float64 {
	if len(report.Breakdown["data"]) > 0 {
		return 0.9
	}
	if len(report.Breakdown["infra"]) > 0 {
		return 0.7
	}
	if report.TotalImpactedCount > 0 {
		return 0.4
	}
	return 0.0
}

// determineRiskLevel converts numeric score to risk level
func determineRiskLevel(score float64) RiskLevel {
	if score >= 0.7 {
		return RiskHigh
	}
	if score >= 0.4 {
		return RiskMedium
	}
	return RiskLow
}

// generateExplanation creates a human-readable explanation
func generateExplanation(level RiskLevel, report *Report) string {
	domains := 0
	for _, artifacts := range report.Breakdown {
		if len(artifacts) > 0 {
			domains++
		}
	}

	switch level {
	case RiskHigh:
		return fmt.Sprintf("High risk: %d artifact(s) across %d domain(s). Changes may break multiple systems.", report.TotalImpactedCount, domains)
	case RiskMedium:
		return fmt.Sprintf("Medium risk: %d artifact(s) across %d domain(s). Changes require careful testing.", report.TotalImpactedCount, domains)
	case RiskLow:
		return fmt.Sprintf("Low risk: %d artifact(s) across %d domain(s). Changes have limited impact.", report.TotalImpactedCount, domains)
	default:
		return "Unknown risk level."
	}
}
