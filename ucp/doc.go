// Package ucp validates Universal Commerce Protocol business profiles.
//
// The profile is discovered through the shared candidate algorithm with
// the .well-known/ucp.json convention and evaluated against the profile
// rule set. There is no security scanner for this protocol; profiles
// declare services, not free-text sub-entities.
package ucp
