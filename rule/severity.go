package rule

import "fmt"

// Severity represents the compliance weight of a rule.
//
// Unlike finding severities, compliance severities gate pass/fail
// aggregation: only a failed critical rule counts as a report failure.
type Severity string

const (
	// SeverityCritical marks a rule whose failure is protocol non-compliance.
	SeverityCritical Severity = "critical"

	// SeverityWarning marks a rule whose failure is a deviation worth fixing
	// but not grounds for declaring the implementation non-compliant.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks an advisory rule surfacing optional coverage.
	// Advisory rules never fail; their message still reports whether the
	// optional field was declared.
	SeverityInfo Severity = "info"
)

// IsValid returns true if the severity level is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity value.
// Returns an error if the string is not a valid severity level.
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s)
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid rule severity: %s", s)
	}
	return severity, nil
}
