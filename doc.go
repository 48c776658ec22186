// Package agentlens is a compliance validator and security scanner for
// AI-agent interoperability protocols.
//
// It evaluates live MCP servers, A2A agents, and UCP business profiles
// against ordered sets of declarative compliance rules, and scans their
// self-described manifests for injection, exfiltration, and exposure
// vulnerabilities.
//
// # Architecture
//
// The engine is organized as small, independent packages:
//
//   - document: untyped JSON value access for untrusted manifests
//   - discovery: well-known location resolution for manifest documents
//   - rule: the compliance rule model, runner, and report aggregation
//   - pattern: regular-expression detector catalogs with secret redaction
//   - finding: security finding model, severity ranking, and summaries
//   - scan: the shared security-finding engine
//   - mcp, a2a, ucp: per-protocol clients, rule sets, and scanners
//   - serve: the HTTP API surface
//
// The root package provides the shared error taxonomy used across all of
// them.
//
// # Error Handling
//
// Engine operations return *agentlens.Error values carrying an operation
// name, an error kind, and an underlying cause. Transport failures are
// always converted into typed outcomes; raw network errors never escape
// the protocol clients.
//
// Nothing fetched from a target is ever persisted. Reports and findings
// exist only for the lifetime of the request that produced them.
package agentlens
