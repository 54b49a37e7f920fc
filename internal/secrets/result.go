package secrets

import (
	"fmt"
	"sort"
	"time"
)

// Result contains the outcome of one scrub pass.
type Result struct {
	// Original is the input content. Excluded from JSON so unscrubbed
	// text never rides along in serialized results.
	Original string `json:"-"`

	// Scrubbed is the content with secrets redacted.
	Scrubbed string `json:"scrubbed"`

	// Findings describes detected secrets without their values.
	Findings []Finding `json:"findings,omitempty"`

	// TotalFindings is the count of secrets found.
	TotalFindings int `json:"total_findings"`

	// ByRule maps rule IDs to finding counts.
	ByRule map[string]int `json:"by_rule,omitempty"`

	// Duration is how long the scrub took.
	Duration time.Duration `json:"duration"`
}

// Finding records one detected secret. The matched value is deliberately
// absent.
type Finding struct {
	// RuleID identifies the detection rule that matched.
	RuleID string `json:"rule_id"`

	// Description explains what was found.
	Description string `json:"description"`

	// Line is the 1-indexed line of the match in the original content.
	Line int `json:"line,omitempty"`

	// StartIndex and EndIndex bound the redacted span in the original
	// content.
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// HasFindings reports whether any secrets were found.
func (r *Result) HasFindings() bool {
	return r.TotalFindings > 0
}

// RuleIDs returns the matched rule IDs in sorted order.
func (r *Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.ByRule))
	for id := range r.ByRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Summary returns a one-line description suitable for logging.
func (r *Result) Summary() string {
	switch r.TotalFindings {
	case 0:
		return "no secrets detected"
	case 1:
		return "1 secret redacted"
	default:
		return fmt.Sprintf("%d secrets redacted", r.TotalFindings)
	}
}
