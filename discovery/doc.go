// Package discovery resolves a target identity to a parsed manifest
// document by trying an ordered list of candidate locations: the identity
// as given, the identity's path with the protocol's well-known suffix,
// and the origin root with the same suffix.
//
// Candidate failures (transport errors, non-success statuses, unparseable
// bodies, HTML login pages) are tolerated per candidate and recorded in
// an attempt log. The first candidate containing an identity-confirming
// field wins immediately. If every candidate fails, the caller receives a
// *DiscoveryError carrying the full attempt log for diagnostics.
package discovery
