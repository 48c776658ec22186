package mcp

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/rule"
)

const specBase = "https://modelcontextprotocol.io/specification/2025-06-18"

// versionPattern matches the date-based protocol revision format with
// real month and day ranges.
var versionPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)

// toolNamePattern is the allowed tool name charset.
var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RuleContext carries the per-target facts rules need beyond the
// handshake document itself.
type RuleContext struct {
	// Endpoint is the URL the handshake was performed against.
	Endpoint string

	// SessionID is the session the server assigned, empty when none.
	SessionID string
}

// Rules returns the ordered compliance rule set for an MCP server
// handshake. The document is the initialize result merged with the
// declared tools under a "tools" key.
func Rules(rc RuleContext) []rule.Rule {
	return []rule.Rule{
		{
			ID:          "protocol-version",
			Name:        "Protocol Version Declared",
			Description: "The initialize result declares the protocol version the server speaks.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/basic/lifecycle",
			Evaluate: func(doc document.Value) rule.Result {
				return presence(doc, "protocolVersion", "protocol version")
			},
		},
		{
			ID:          "protocol-version-format",
			Name:        "Protocol Version Format",
			Description: "The declared protocol version uses the YYYY-MM-DD revision format.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/basic/lifecycle",
			Evaluate: func(doc document.Value) rule.Result {
				return dateVersion(doc, "protocolVersion")
			},
		},
		{
			ID:          "server-info",
			Name:        "Server Identity Declared",
			Description: "The initialize result identifies the server by name and version.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/basic/lifecycle",
			Evaluate: func(doc document.Value) rule.Result {
				name, hasName := doc.String("serverInfo", "name")
				version, hasVersion := doc.String("serverInfo", "version")
				switch {
				case hasName && name != "" && hasVersion && version != "":
					return passResult(fmt.Sprintf("server identifies as %q version %q", name, version))
				case hasName && name != "":
					return failResult(fmt.Sprintf("serverInfo for %q is MISSING: version", name))
				default:
					return failResult("MISSING: serverInfo with name and version")
				}
			},
		},
		{
			ID:          "capabilities",
			Name:        "Capabilities Object Declared",
			Description: "The initialize result declares a capabilities object.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/basic/lifecycle",
			Evaluate: func(doc document.Value) rule.Result {
				caps, ok := doc.Map("capabilities")
				if !ok {
					return failResult("MISSING: capabilities object in initialize result")
				}
				if len(caps) == 0 {
					return passResult("capabilities object declared (empty)")
				}
				names := sortedKeys(caps)
				return passResult(fmt.Sprintf("capabilities declared: %s", strings.Join(names, ", ")))
			},
		},
		{
			ID:          "endpoint-https",
			Name:        "Encrypted Transport",
			Description: "The server endpoint uses HTTPS, unless it is a loopback address.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/basic/transports",
			Evaluate: func(document.Value) rule.Result {
				return httpsEndpoint(rc.Endpoint)
			},
		},
		{
			ID:          "tools-declared",
			Name:        "Tools Declared",
			Description: "The server declares at least one tool via tools/list.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/server/tools",
			Evaluate: func(doc document.Value) rule.Result {
				tools, ok := doc.Array("tools")
				if !ok {
					return failResult("MISSING: tools listing (tools/list failed or returned no array)")
				}
				if len(tools) == 0 {
					return failResult("server declares no tools")
				}
				return passResult(fmt.Sprintf("%d tool(s) declared", len(tools)))
			},
		},
		{
			ID:          "tool-descriptions",
			Name:        "Tool Descriptions Present",
			Description: "Every declared tool carries a non-empty description.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/server/tools",
			Evaluate: func(doc document.Value) rule.Result {
				return eachTool(doc, "a description", func(tool document.Value) bool {
					desc, ok := tool.String("description")
					return ok && desc != ""
				})
			},
		},
		{
			ID:          "tool-input-schemas",
			Name:        "Tool Input Schemas Typed",
			Description: "Every declared tool carries an object-typed inputSchema.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/server/tools",
			Evaluate: func(doc document.Value) rule.Result {
				return eachTool(doc, "an object-typed inputSchema", func(tool document.Value) bool {
					return tool.StringOr("", "inputSchema", "type") == "object"
				})
			},
		},
		{
			ID:          "tool-names",
			Name:        "Tool Name Charset",
			Description: "Tool names contain only letters, digits, underscores, and hyphens.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/server/tools",
			Evaluate: func(doc document.Value) rule.Result {
				return eachTool(doc, "a well-formed name", func(tool document.Value) bool {
					name, ok := tool.String("name")
					return ok && toolNamePattern.MatchString(name)
				})
			},
		},
		{
			ID:          "instructions-advisory",
			Name:        "Server Instructions",
			Description: "Reports whether the optional instructions field was declared.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(doc document.Value) rule.Result {
				if inst, ok := doc.String("instructions"); ok && inst != "" {
					return passResult(fmt.Sprintf("instructions declared (%d chars)", len(inst)))
				}
				return passResult("no instructions field declared")
			},
		},
		{
			ID:          "ping-advisory",
			Name:        "Session Liveness",
			Description: "Reports whether a server session was established for liveness checks.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(document.Value) rule.Result {
				if rc.SessionID == "" {
					return passResult("ping not tested: server assigned no session")
				}
				return passResult(fmt.Sprintf("session %s established", rc.SessionID))
			},
		},
	}
}

// eachTool applies a per-tool predicate and enumerates every offender in
// the failure message rather than stopping at the first.
func eachTool(doc document.Value, requirement string, ok func(document.Value) bool) rule.Result {
	tools, found := doc.Array("tools")
	if !found {
		return failResult("MISSING: tools listing to check")
	}
	var offenders []string
	for i, tool := range tools {
		if ok(tool) {
			continue
		}
		name := tool.StringOr(fmt.Sprintf("tool #%d", i), "name")
		offenders = append(offenders, name)
	}
	if len(offenders) > 0 {
		return failResult(fmt.Sprintf("%d tool(s) without %s: %s", len(offenders), requirement, strings.Join(offenders, ", ")))
	}
	return passResult(fmt.Sprintf("all %d tool(s) declare %s", len(tools), requirement))
}

func presence(doc document.Value, field, label string) rule.Result {
	val, ok := doc.String(field)
	if !ok || val == "" {
		return failResult(fmt.Sprintf("MISSING: %s (%s field)", label, field))
	}
	return passResult(fmt.Sprintf("%s declared: %q", label, val))
}

func dateVersion(doc document.Value, field string) rule.Result {
	val, ok := doc.String(field)
	if !ok || val == "" {
		return failResult(fmt.Sprintf("MISSING: %s to check format of", field))
	}
	if !versionPattern.MatchString(val) {
		return failResult(fmt.Sprintf("version %q does not match the YYYY-MM-DD revision format", val))
	}
	return passResult(fmt.Sprintf("version %q matches the YYYY-MM-DD revision format", val))
}

// httpsEndpoint fails plaintext endpoints unless the host is loopback.
func httpsEndpoint(endpoint string) rule.Result {
	u, err := url.Parse(endpoint)
	if err != nil {
		return failResult(fmt.Sprintf("endpoint %q is not a valid URL", endpoint))
	}
	switch u.Scheme {
	case "https":
		return passResult(fmt.Sprintf("endpoint %s uses HTTPS", endpoint))
	case "http":
		if isLoopbackHost(u.Hostname()) {
			return passResult(fmt.Sprintf("endpoint %s is plaintext but loopback", endpoint))
		}
		return failResult(fmt.Sprintf("endpoint %s uses plaintext HTTP on a non-local host", endpoint))
	default:
		return failResult(fmt.Sprintf("endpoint %s uses unsupported scheme %q", endpoint, u.Scheme))
	}
}

func isLoopbackHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func passResult(message string) rule.Result {
	return rule.Result{Passed: true, Message: message}
}

func failResult(message string) rule.Result {
	return rule.Result{Passed: false, Message: message}
}
