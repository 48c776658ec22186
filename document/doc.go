// Package document provides total, panic-free access to untyped JSON
// documents fetched from untrusted protocol implementations.
//
// Manifest, agent card, and business profile documents have no guaranteed
// shape. Every accessor on Value therefore returns (zero, false) for
// absent or mistyped fields, which lets compliance rules treat malformed
// input as ordinary failing input rather than an exceptional condition.
package document
