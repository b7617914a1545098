package mappings

import (
	"fmt"
	"strings"
)

// ValidationWarning is a non-fatal finding from mapping validation.
type ValidationWarning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Severity   string `json:"severity"`
}

// Validator checks explicit mappings against the set of node ids currently
// in the graph. Validation never fails hard; all findings come back as a
// warning list so callers decide whether to block.
type Validator struct {
	nodeIds map[string]struct{}
}

// NewValidator builds a validator over the given node-id set.
func NewValidator(nodeIds map[string]struct{}) *Validator {
	return &Validator{nodeIds: nodeIds}
}

// Validate checks every mapping and returns the accumulated warnings.
func (v *Validator) Validate(mappings []*ExplicitMapping) []ValidationWarning {
	var warnings []ValidationWarning

	for _, mapping := range mappings {
		if mapping.IsIgnore() {
			continue
		}

		if !strings.Contains(mapping.Source, "*") {
			if _, ok := v.nodeIds[mapping.Source]; !ok {
				warnings = append(warnings, ValidationWarning{
					Code:       "mapping-source-not-found",
					Message:    fmt.Sprintf("mapping source %q not found in graph", mapping.Source),
					Suggestion: "check the node id or rescan the project first",
					Severity:   "warning",
				})
			}
		}

		if !strings.Contains(mapping.Target, "*") {
			if _, ok := v.nodeIds[mapping.Target]; !ok {
				warnings = append(warnings, ValidationWarning{
					Code:       "mapping-target-not-found",
					Message:    fmt.Sprintf("mapping target %q not found in graph", mapping.Target),
					Suggestion: "check the node id or ensure the file is being scanned",
					Severity:   "warning",
				})
			}
		}
	}

	warnings = append(warnings, v.findConflicts(mappings)...)
	return warnings
}

// findConflicts flags provides-mappings that share a source but point at
// different targets.
func (v *Validator) findConflicts(mappings []*ExplicitMapping) []ValidationWarning {
	var warnings []ValidationWarning
	sourceTargets := make(map[string][]string)
	var order []string

	for _, mapping := range mappings {
		if mapping.IsIgnore() {
			continue
		}
		if _, seen := sourceTargets[mapping.Source]; !seen {
			order = append(order, mapping.Source)
		}
		sourceTargets[mapping.Source] = append(sourceTargets[mapping.Source], mapping.Target)
	}

	for _, source := range order {
		targets := sourceTargets[source]
		if len(targets) > 1 {
			warnings = append(warnings, ValidationWarning{
				Code:       "conflicting-mappings",
				Message:    fmt.Sprintf("source %q has multiple targets: %s", source, strings.Join(targets, ", ")),
				Suggestion: "remove duplicate mappings or use a single target",
				Severity:   "error",
			})
		}
	}
	return warnings
}
