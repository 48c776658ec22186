package rule

import (
	"fmt"
	"time"

	"github.com/agentlens/agentlens/document"
)

// RunOptions carries the report metadata the runner cannot derive from the
// document itself.
type RunOptions struct {
	// Subject is the target identity the rules run against.
	Subject string

	// SpecVersion names the protocol specification version of the rule set.
	SpecVersion string

	// ResolvedLocation is set when discovery rewrote the supplied identity.
	ResolvedLocation string
}

// Run evaluates every rule in declaration order against the same document
// snapshot and aggregates the results into a Report.
//
// Rules are isolated from one another: a panic inside one rule's Evaluate
// is recovered into a failing Result citing the internal error, and
// evaluation of the remaining rules continues unaffected.
func Run(rules []Rule, doc document.Value, opts RunOptions) Report {
	report := Report{
		Timestamp:        time.Now().UTC(),
		Subject:          opts.Subject,
		SpecVersion:      opts.SpecVersion,
		ResolvedLocation: opts.ResolvedLocation,
		Results:          make([]Result, 0, len(rules)),
		RawDocument:      doc.Raw(),
	}

	for _, r := range rules {
		report.Results = append(report.Results, evaluate(r, doc))
	}

	report.Recount()
	return report
}

// evaluate runs one rule with panic recovery. The rule's identity fields
// are stamped onto the result afterwards so evaluation functions only
// decide the verdict, message, and details.
func evaluate(r Rule, doc document.Value) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = r.Fail(fmt.Sprintf("internal error evaluating rule %s: %v", r.ID, rec))
		}
		res.RuleID = r.ID
		res.Name = r.Name
		res.Severity = r.Severity
		if res.DocURL == "" {
			res.DocURL = r.DocURL
		}
	}()

	if r.Evaluate == nil {
		return r.Fail(fmt.Sprintf("internal error: rule %s has no evaluation function", r.ID))
	}

	return r.Evaluate(doc)
}
