package pattern

import "regexp"

// Pattern is one compiled detector: a regular expression plus the label
// reported when it matches.
type Pattern struct {
	// Re is the compiled detection expression.
	Re *regexp.Regexp

	// Label names what the pattern detects, used in finding titles.
	Label string
}

// Match is the outcome of a catalog scan: the label of the first pattern
// that matched and the exact substring it matched.
type Match struct {
	// Label is the matched pattern's label.
	Label string

	// Text is the matched substring, verbatim. For secret catalogs the
	// caller must redact before surfacing it.
	Text string
}

// Scan checks text against the catalog in declaration order and returns
// the first match.
//
// First-match-wins is intentional: one finding per offending field per
// category bounds output noise. Do not extend this to exhaustive matching.
func Scan(text string, catalog []Pattern) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for _, p := range catalog {
		if loc := p.Re.FindString(text); loc != "" {
			return Match{Label: p.Label, Text: loc}, true
		}
	}
	return Match{}, false
}

// ScanAll checks text against the catalog and returns every pattern's
// first match, at most one per pattern. Used only for fingerprint
// collection where names are de-duplicated into a single finding.
func ScanAll(text string, catalog []Pattern) []Match {
	if text == "" {
		return nil
	}
	var out []Match
	for _, p := range catalog {
		if loc := p.Re.FindString(text); loc != "" {
			out = append(out, Match{Label: p.Label, Text: loc})
		}
	}
	return out
}
