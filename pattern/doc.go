// Package pattern provides the regular-expression detector catalogs used
// by the security scanners, along with the first-match scan primitive and
// secret redaction.
//
// Catalogs are module-level immutable data compiled at process start.
// Scan reports at most one match per catalog per scanned field; this
// first-match-wins behavior is a deliberate noise bound, not a
// limitation.
//
// Matches from the Secrets catalog must pass through RedactSecret before
// appearing in any finding: only a short fixed-length prefix of the match
// is ever retained.
package pattern
