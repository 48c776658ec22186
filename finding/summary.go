package finding

// Summary aggregates a finding collection by severity.
// Total always equals the sum of the five counts.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Summarize folds a finding collection into per-severity counts.
// It is a pure function of its input.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		case SeverityInfo:
			s.Info++
		}
	}
	s.Total = s.Critical + s.High + s.Medium + s.Low + s.Info
	return s
}

// CountByCategory folds a finding collection into per-category counts.
// Categories with no findings are omitted.
func CountByCategory(findings []Finding) map[string]int {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Category.String()]++
	}
	return counts
}

// AtOrAbove returns the number of findings ranking at or above the given
// severity threshold.
func AtOrAbove(findings []Finding, threshold Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity.AtLeast(threshold) {
			n++
		}
	}
	return n
}
