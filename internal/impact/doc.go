// Package impact answers "what breaks if I change this?" over the
// cross-domain dependency graph.
//
// The Analyzer resolves loose artifact names (env var names, file paths,
// Terraform addresses) to concrete node ids, then:
//
//   - Calculate unions the direction-aware transitive impact of one or more
//     changed artifacts into a Report, bucketed by artifact domain and
//     scored for risk
//   - Why explains a single artifact through its direct edges, including
//     the stitching rule and confidence behind each inferred edge
//
// Basic usage:
//
//	analyzer := impact.NewAnalyzer(g, logger)
//	report := analyzer.Calculate([]string{"env:DATABASE_URL"}, -1)
//	fmt.Printf("%d artifacts affected (%s risk)\n",
//	    report.TotalImpactedCount, report.Risk.Level)
//
// Risk is calculated using weighted factors:
//
//   - Impacted count (weight 0.35): more downstream artifacts = higher risk
//   - Domain spread (weight 0.25): impact crossing domains = higher risk
//   - Evidence strength (weight 0.3): confident edges mean the breakage is
//     real, not a fuzzy-match artifact
//   - Domain kind (weight 0.1): data and infra fallout outranks code-only
//
// The final score (0.0-1.0) is mapped to risk levels:
//   - Low: 0.0 - 0.39
//   - Medium: 0.4 - 0.69
//   - High: 0.7 - 1.0
package impact
