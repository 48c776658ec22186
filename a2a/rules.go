package a2a

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

const specBase = "https://a2a-protocol.org/latest/specification"

// protocolVersionPattern matches the dotted numeric protocol version the
// card optionally declares.
var protocolVersionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// RuleContext carries the discovery outcome the card rules need beyond
// the document itself.
type RuleContext struct {
	// Discovered reports whether any candidate location yielded a card.
	Discovered bool

	// AttemptLog lists the per-candidate failures when discovery failed.
	AttemptLog []string
}

// Rules returns the ordered compliance rule set for an A2A agent card.
// The full list runs even when discovery failed: the first rule carries
// the attempt log and the presence rules fail naturally against the nil
// document.
func Rules(rc RuleContext) []rule.Rule {
	return []rule.Rule{
		{
			ID:          "card-discovered",
			Name:        "Agent Card Discovered",
			Description: "An agent card was found at the target or one of its well-known locations.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/#5-agent-discovery-the-agent-card",
			Evaluate: func(document.Value) rule.Result {
				if !rc.Discovered {
					res := failResult(fmt.Sprintf("no agent card found after %d attempt(s)", len(rc.AttemptLog)))
					return res.WithDetails(map[string]any{"attempts": rc.AttemptLog})
				}
				return passResult("agent card resolved")
			},
		},
		{
			ID:          "agent-name",
			Name:        "Agent Name Declared",
			Description: "The card declares the agent's human-readable name.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				return presence(doc, "name", "agent name")
			},
		},
		{
			ID:          "agent-description",
			Name:        "Agent Description Declared",
			Description: "The card declares a description of what the agent does.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				return presence(doc, "description", "agent description")
			},
		},
		{
			ID:          "agent-url",
			Name:        "Service Endpoint Declared",
			Description: "The card declares an HTTPS service endpoint URL.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				endpoint, ok := doc.String("url")
				if !ok || endpoint == "" {
					return failResult("MISSING: service endpoint (url field)")
				}
				return httpsEndpoint(endpoint)
			},
		},
		{
			ID:          "agent-version",
			Name:        "Agent Version Declared",
			Description: "The card declares the agent implementation's version.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				return presence(doc, "version", "agent version")
			},
		},
		{
			ID:          "protocol-version-format",
			Name:        "Protocol Version Format",
			Description: "A declared protocolVersion uses the dotted numeric format.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				pv, ok := doc.String("protocolVersion")
				if !ok || pv == "" {
					return passResult("no protocolVersion declared (optional)")
				}
				if !protocolVersionPattern.MatchString(pv) {
					return failResult(fmt.Sprintf("protocolVersion %q does not match the dotted numeric format", pv))
				}
				return passResult(fmt.Sprintf("protocolVersion %q declared", pv))
			},
		},
		{
			ID:          "skills-declared",
			Name:        "Skills Declared",
			Description: "The card declares at least one skill.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/#56-agentskill-object",
			Evaluate: func(doc document.Value) rule.Result {
				skills, ok := doc.Array("skills")
				if !ok {
					return failResult("MISSING: skills array")
				}
				if len(skills) == 0 {
					return failResult("card declares no skills")
				}
				return passResult(fmt.Sprintf("%d skill(s) declared", len(skills)))
			},
		},
		{
			ID:          "skill-fields",
			Name:        "Skill Fields Complete",
			Description: "Every declared skill carries an id, a name, and a description.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#56-agentskill-object",
			Evaluate: func(doc document.Value) rule.Result {
				skills, ok := doc.Array("skills")
				if !ok {
					return failResult("MISSING: skills array to check")
				}
				var offenders []string
				for i, skill := range skills {
					id := skill.StringOr("", "id")
					name := skill.StringOr("", "name")
					desc := skill.StringOr("", "description")
					if id != "" && name != "" && desc != "" {
						continue
					}
					label := id
					if label == "" {
						label = name
					}
					if label == "" {
						label = fmt.Sprintf("skill #%d", i)
					}
					offenders = append(offenders, label)
				}
				if len(offenders) > 0 {
					return failResult(fmt.Sprintf("%d skill(s) missing id, name, or description: %s",
						len(offenders), strings.Join(offenders, ", ")))
				}
				return passResult(fmt.Sprintf("all %d skill(s) declare id, name, and description", len(skills)))
			},
		},
		{
			ID:          "skill-tags-advisory",
			Name:        "Skill Tags",
			Description: "Reports how many skills declare discovery tags.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(doc document.Value) rule.Result {
				skills, ok := doc.Array("skills")
				if !ok || len(skills) == 0 {
					return passResult("no skills to check for tags")
				}
				tagged := 0
				for _, skill := range skills {
					if tags, ok := skill.Array("tags"); ok && len(tags) > 0 {
						tagged++
					}
				}
				return passResult(fmt.Sprintf("%d of %d skill(s) declare tags", tagged, len(skills)))
			},
		},
		{
			ID:          "capabilities",
			Name:        "Capabilities Object Declared",
			Description: "The card declares a capabilities object.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				caps, ok := doc.Map("capabilities")
				if !ok {
					return failResult("MISSING: capabilities object")
				}
				declared := make([]string, 0, len(caps))
				for name, val := range caps {
					if enabled, isBool := val.(bool); isBool && enabled {
						declared = append(declared, name)
					}
				}
				if len(declared) == 0 {
					return passResult("capabilities object declared (none enabled)")
				}
				return passResult(fmt.Sprintf("capabilities enabled: %s", strings.Join(sortStrings(declared), ", ")))
			},
		},
		{
			ID:          "io-modes",
			Name:        "Input And Output Modes Declared",
			Description: "The card declares default input and output content modes.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/#55-agentcard-object-structure",
			Evaluate: func(doc document.Value) rule.Result {
				in, inOK := doc.Array("defaultInputModes")
				out, outOK := doc.Array("defaultOutputModes")
				switch {
				case (!inOK || len(in) == 0) && (!outOK || len(out) == 0):
					return failResult("MISSING: defaultInputModes and defaultOutputModes")
				case !inOK || len(in) == 0:
					return failResult("MISSING: defaultInputModes")
				case !outOK || len(out) == 0:
					return failResult("MISSING: defaultOutputModes")
				}
				return passResult(fmt.Sprintf("%d input mode(s), %d output mode(s) declared", len(in), len(out)))
			},
		},
		{
			ID:          "security-schemes-advisory",
			Name:        "Security Schemes",
			Description: "Reports whether the card declares authentication schemes.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(doc document.Value) rule.Result {
				if schemes, ok := doc.Map("securitySchemes"); ok && len(schemes) > 0 {
					return passResult(fmt.Sprintf("%d security scheme(s) declared: %s",
						len(schemes), strings.Join(sortStrings(keysOf(schemes)), ", ")))
				}
				return passResult("no security schemes declared")
			},
		},
	}
}

func presence(doc document.Value, field, label string) rule.Result {
	val, ok := doc.String(field)
	if !ok || val == "" {
		return failResult(fmt.Sprintf("MISSING: %s (%s field)", label, field))
	}
	return passResult(fmt.Sprintf("%s declared: %q", label, val))
}

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

func sortStrings(in []string) []string {
	sort.Strings(in)
	return in
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func passResult(message string) rule.Result {
	return rule.Result{Passed: true, Message: message}
}

func failResult(message string) rule.Result {
	return rule.Result{Passed: false, Message: message}
}
