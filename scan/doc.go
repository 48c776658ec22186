// Package scan provides the security-finding engine shared by the MCP
// server scanner and the A2A agent scanner.
//
// The engine applies the pattern detector catalogs plus structural
// heuristics (surface area, transport scheme, authentication posture,
// header coverage, metadata leakage) to a fetched manifest and its
// declared sub-entities. Each detection pass is independent: a pass that
// cannot complete contributes zero findings rather than aborting the
// remaining passes.
//
// Finding order is deterministic: pass declaration order, then
// sub-entity order, so identical inputs always produce identical output.
package scan
