package finding

import "fmt"

// Severity represents the severity level of a security finding.
type Severity string

const (
	// SeverityCritical indicates a critical security issue requiring immediate attention.
	// Examples: Hidden instructions in a tool description, command injection patterns
	SeverityCritical Severity = "critical"

	// SeverityHigh indicates a high-impact security issue.
	// Examples: Unauthenticated access, exfiltration-shaped parameters
	SeverityHigh Severity = "high"

	// SeverityMedium indicates a moderate security issue.
	// Examples: Excessive surface area, over-exposed instruction context
	SeverityMedium Severity = "medium"

	// SeverityLow indicates a minor security issue.
	// Examples: Missing security response headers, framework fingerprints
	SeverityLow Severity = "low"

	// SeverityInfo indicates an informational finding without direct security impact.
	// Examples: Version disclosure in handshake metadata
	SeverityInfo Severity = "info"
)

// severityWeights maps severity levels to numeric weights for ranking.
// Higher weights indicate more severe findings.
var severityWeights = map[Severity]float64{
	SeverityCritical: 10.0,
	SeverityHigh:     7.5,
	SeverityMedium:   5.0,
	SeverityLow:      2.5,
	SeverityInfo:     1.0,
}

// IsValid returns true if the severity level is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}

// Weight returns the numeric weight associated with the severity level.
// Returns 0.0 for invalid severity levels.
func (s Severity) Weight() float64 {
	if weight, ok := severityWeights[s]; ok {
		return weight
	}
	return 0.0
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
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

// Compare compares two severity levels by weight.
// Returns:
//   - negative if s1 < s2
//   - zero if s1 == s2
//   - positive if s1 > s2
func Compare(s1, s2 Severity) int {
	w1 := s1.Weight()
	w2 := s2.Weight()
	switch {
	case w1 < w2:
		return -1
	case w1 > w2:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above the threshold severity.
// Used by callers that gate exit codes on a --fail-on threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return Compare(s, threshold) >= 0
}
