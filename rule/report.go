package rule

import "time"

// Report is the aggregated outcome of running a rule set against one
// document snapshot.
//
// Count invariants:
//   - FailedCount counts only results with Passed=false and critical
//     severity; failure is reserved for critical non-compliance.
//   - WarningCount counts only results with Passed=false and warning
//     severity. Informational failures contribute to neither.
type Report struct {
	// Timestamp records when the report was produced.
	Timestamp time.Time `json:"timestamp"`

	// Subject is the target identity the rules ran against.
	Subject string `json:"subject"`

	// SpecVersion names the protocol specification version the rule set
	// derives from.
	SpecVersion string `json:"spec_version"`

	// ResolvedLocation is the document location discovery settled on when
	// it rewrote the originally supplied identity. Empty when the subject
	// was used as given.
	ResolvedLocation string `json:"resolved_location,omitempty"`

	// Results holds one entry per rule, in rule declaration order.
	Results []Result `json:"results"`

	// PassedCount is the number of passing results.
	PassedCount int `json:"passed_count"`

	// FailedCount is the number of failed critical results.
	FailedCount int `json:"failed_count"`

	// WarningCount is the number of failed warning results.
	WarningCount int `json:"warning_count"`

	// RawDocument carries the fetched document for display. It is never
	// persisted beyond the response that carries it.
	RawDocument any `json:"raw_document,omitempty"`
}

// Recount recomputes the three counters from Results. It is the single
// place the count invariants are enforced.
func (r *Report) Recount() {
	r.PassedCount = 0
	r.FailedCount = 0
	r.WarningCount = 0
	for _, res := range r.Results {
		if res.Passed {
			r.PassedCount++
			continue
		}
		switch res.Severity {
		case SeverityCritical:
			r.FailedCount++
		case SeverityWarning:
			r.WarningCount++
		}
	}
}

// Compliant reports whether the subject passed every critical rule.
func (r *Report) Compliant() bool {
	return r.FailedCount == 0
}
