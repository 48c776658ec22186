package discovery

import (
	"fmt"
	"strings"
)

// Attempt records one failed candidate location during discovery.
type Attempt struct {
	// Location is the candidate URL that was tried.
	Location string `json:"location"`

	// Reason describes why the candidate was rejected.
	Reason string `json:"reason"`
}

// DiscoveryError reports that no candidate location yielded a usable
// document. It carries the full per-candidate attempt log, which callers
// surface verbatim so users can debug their own deployments.
type DiscoveryError struct {
	// Subject is the identity discovery started from.
	Subject string

	// Attempts lists every candidate tried, in order, with its failure.
	Attempts []Attempt
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no document found for %s after %d attempts", e.Subject, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %s", a.Location, a.Reason)
	}
	return b.String()
}

// AttemptLog renders the attempt log one line per candidate, for display.
func (e *DiscoveryError) AttemptLog() []string {
	lines := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		lines = append(lines, fmt.Sprintf("%s: %s", a.Location, a.Reason))
	}
	return lines
}
