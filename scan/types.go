package scan

import (
	"net/http"

	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/finding"
)

// Entity is one declared sub-entity of a manifest: a tool on an MCP
// server or a skill on an A2A agent. The per-entity detection passes
// operate on this protocol-neutral shape.
type Entity struct {
	// Name is the entity's declared identifier.
	Name string

	// Kind labels the entity for messages: "tool" or "skill".
	Kind string

	// Description is the entity's free-text description.
	Description string

	// ParamNames lists declared parameter names, for tool-shaped entities.
	ParamNames []string

	// OpenParams lists parameter names declared with open-ended types
	// (accepts arbitrary structured data).
	OpenParams []string

	// Raw is the entity's full declared payload, used for fingerprint
	// scans over the serialized data.
	Raw document.Value
}

// Transport carries what the fetch layer observed about the connection,
// for the manifest-level and header detection passes.
type Transport struct {
	// URL is the resolved endpoint the manifest came from.
	URL string

	// Header is the response header set of the successful fetch.
	Header http.Header

	// Authenticated reports whether any authentication material was
	// supplied on the request.
	Authenticated bool
}

// Result is the outcome of one security scan.
type Result struct {
	// Findings lists every finding in deterministic order: detection-pass
	// declaration order, then sub-entity order.
	Findings []finding.Finding `json:"findings"`

	// Summary folds the findings by severity.
	Summary finding.Summary `json:"summary"`

	// CategoryCounts folds the findings by category.
	CategoryCounts map[string]int `json:"category_counts"`

	// RawDocument carries the scanned manifest for display.
	RawDocument any `json:"raw_document,omitempty"`
}

// Compose assembles a Result from a finalized finding list.
func Compose(findings []finding.Finding, rawDocument any) Result {
	return Result{
		Findings:       findings,
		Summary:        finding.Summarize(findings),
		CategoryCounts: finding.CountByCategory(findings),
		RawDocument:    rawDocument,
	}
}
