// Package finding provides types for representing security weaknesses
// discovered while scanning AI-agent protocol implementations.
//
// A Finding is one discrete, categorized piece of evidence of a potential
// vulnerability, as distinct from a compliance Result (a pass/fail verdict
// against a specification requirement).
//
// # Severity Levels
//
// Severity is ranked from Critical to Info with associated weights for
// comparison and threshold filtering.
//
// # Categories
//
// Findings are bucketed into vulnerability classes specific to the
// agent-protocol domain: prompt injection, tool shadowing, data
// exfiltration, command injection, secret exposure, excessive surface
// area, authentication posture, transport security, and information
// disclosure.
//
// # Summaries
//
// Summarize folds a finding collection into per-severity counts; the
// Total field always equals the sum of the five counts.
package finding
