package mcp

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/rule"
	"github.com/agentlens/agentlens/scan"
)

// Options configures one validation or scan run against an MCP server.
type Options struct {
	// Credential is the optional authentication material for the target.
	Credential discovery.Credential

	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client

	// SurfaceThreshold overrides the declared-tool count above which a
	// surface-area finding is raised. Zero keeps the default.
	SurfaceThreshold int
}

func (o Options) clientOptions() []ClientOption {
	var opts []ClientOption
	if o.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(o.HTTPClient))
	}
	return opts
}

// Validate performs the MCP handshake against endpoint and evaluates the
// compliance rule set over the merged handshake document.
//
// A handshake that cannot complete at all returns an error; there is no
// partial document to evaluate rules against.
func Validate(ctx context.Context, endpoint string, opts Options) (rule.Report, error) {
	hs, err := NewClient(endpoint, opts.Credential, opts.clientOptions()...).Handshake(ctx)
	if err != nil {
		return rule.Report{}, err
	}

	rules := Rules(RuleContext{Endpoint: endpoint, SessionID: hs.SessionID})
	return rule.Run(rules, hs.Document, rule.RunOptions{
		Subject:          endpoint,
		SpecVersion:      ProtocolVersion,
		ResolvedLocation: endpoint,
	}), nil
}

// Scan performs the MCP handshake and runs the security detection passes
// over the handshake document and every declared tool.
func Scan(ctx context.Context, endpoint string, opts Options) (scan.Result, error) {
	hs, err := NewClient(endpoint, opts.Credential, opts.clientOptions()...).Handshake(ctx)
	if err != nil {
		return scan.Result{}, err
	}

	entities := make([]scan.Entity, 0, len(hs.Tools))
	for i, tool := range hs.Tools {
		entities = append(entities, entityFromTool(tool, i))
	}

	engine := &scan.Engine{SurfaceThreshold: opts.SurfaceThreshold}
	findings := engine.Scan(hs.Document, entities, scan.Transport{
		URL:           endpoint,
		Header:        hs.Header,
		Authenticated: hs.Authenticated,
	})
	return scan.Compose(findings, hs.Document.Raw()), nil
}

// entityFromTool flattens one declared tool into the protocol-neutral
// entity shape the detection passes operate on.
func entityFromTool(tool document.Value, index int) scan.Entity {
	ent := scan.Entity{
		Name:        tool.StringOr("", "name"),
		Kind:        "tool",
		Description: tool.StringOr("", "description"),
		Raw:         tool,
	}
	if ent.Name == "" {
		ent.Name = anonymousToolName(index)
	}

	props, ok := tool.Map("inputSchema", "properties")
	if !ok {
		return ent
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	ent.ParamNames = names

	for _, name := range names {
		prop, _ := tool.Get("inputSchema", "properties", name)
		if openEndedParam(prop) {
			ent.OpenParams = append(ent.OpenParams, name)
		}
	}
	return ent
}

// openEndedParam reports whether a parameter schema accepts arbitrary
// structured data: no declared type, or an object type with no declared
// property shape of its own.
func openEndedParam(prop document.Value) bool {
	typ, ok := prop.String("type")
	if !ok || typ == "" {
		return true
	}
	if typ != "object" {
		return false
	}
	return !prop.Exists("properties")
}

func anonymousToolName(index int) string {
	return "tool #" + strconv.Itoa(index)
}
