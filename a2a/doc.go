// Package a2a validates and security-scans Agent-to-Agent protocol
// implementations by their published agent card.
//
// The card is discovered through the shared candidate algorithm with the
// .well-known/agent.json convention. Compliance rules evaluate the card
// document; the security scanner runs the shared detection passes over
// the card and every declared skill, optionally followed by one live
// unauthenticated probe of the declared service endpoint.
package a2a
