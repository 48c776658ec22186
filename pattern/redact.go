package pattern

// RedactionPrefixLen is the number of leading characters of a secret match
// retained in evidence.
const RedactionPrefixLen = 10

// RedactionMarker replaces the remainder of a redacted secret.
const RedactionMarker = "...[REDACTED]"

// RedactSecret truncates a matched secret to a short fixed-length prefix
// followed by the redaction marker. The full matched credential is never
// returned, logged, or stored.
func RedactSecret(match string) string {
	if len(match) <= RedactionPrefixLen {
		return match + RedactionMarker
	}
	return match[:RedactionPrefixLen] + RedactionMarker
}
