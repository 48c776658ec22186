package rule

import "github.com/agentlens/agentlens/document"

// EvaluateFunc is the signature of a rule's evaluation function.
//
// Evaluation must be pure: no I/O, no mutation of the document, no state
// shared with other rules. Absence or malformation of a field is normal
// input and must produce a failing Result, never a panic; the runner's
// recovery wrapper exists for unexpected faults only.
type EvaluateFunc func(doc document.Value) Result

// Rule is one compliance check against a fetched document or handshake
// response.
//
// Rules are immutable and evaluated in declaration order. No rule depends
// on another rule's outcome.
type Rule struct {
	// ID uniquely identifies the rule within its rule set.
	ID string

	// Name is the human-readable name of the rule.
	Name string

	// Description explains what the rule verifies.
	Description string

	// Severity is the compliance weight applied when the rule fails.
	Severity Severity

	// DocURL links to the authoritative specification section the rule
	// derives from. Advisory rules may leave it empty.
	DocURL string

	// Evaluate produces the rule's verdict for a document snapshot.
	Evaluate EvaluateFunc
}

// Result is the structured verdict of one rule evaluation.
type Result struct {
	// Passed reports whether the document satisfied the rule.
	Passed bool `json:"passed"`

	// RuleID identifies the rule that produced this result.
	RuleID string `json:"rule_id"`

	// Name is the rule's human-readable name, carried for display.
	Name string `json:"name"`

	// Message is a human-readable verdict. It embeds the concrete
	// offending or confirming values when available.
	Message string `json:"message"`

	// Severity is the rule's declared severity.
	Severity Severity `json:"severity"`

	// Details carries optional structured data backing the message.
	Details map[string]any `json:"details,omitempty"`

	// DocURL links to the specification section the rule derives from.
	DocURL string `json:"doc_url,omitempty"`
}

// Pass builds a passing Result for the rule with the given message.
func (r Rule) Pass(message string) Result {
	return Result{
		Passed:   true,
		RuleID:   r.ID,
		Name:     r.Name,
		Message:  message,
		Severity: r.Severity,
		DocURL:   r.DocURL,
	}
}

// Fail builds a failing Result for the rule with the given message.
func (r Rule) Fail(message string) Result {
	return Result{
		Passed:   false,
		RuleID:   r.ID,
		Name:     r.Name,
		Message:  message,
		Severity: r.Severity,
		DocURL:   r.DocURL,
	}
}

// WithDetails returns a copy of the result with structured details attached.
func (res Result) WithDetails(details map[string]any) Result {
	res.Details = details
	return res
}
