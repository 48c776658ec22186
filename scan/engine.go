package scan

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/finding"
	"github.com/agentlens/agentlens/pattern"
)

// Default thresholds for the manifest-level heuristics.
const (
	// DefaultSurfaceThreshold is the declared sub-entity count above which
	// the surface-area heuristic fires.
	DefaultSurfaceThreshold = 20

	// DefaultInstructionsThreshold is the length in characters above which
	// a free-text instructions field is flagged as context over-exposure.
	DefaultInstructionsThreshold = 200
)

// requiredHeaders is the fixed set of recommended security response
// headers checked on HTTPS endpoints.
var requiredHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
}

// disclosingHeaders are response headers that reveal the serving
// technology.
var disclosingHeaders = []string{"Server", "X-Powered-By"}

// Engine applies the pattern detector catalogs and structural heuristics
// to a fetched manifest and its declared sub-entities. Both the MCP
// server scanner and the A2A agent scanner run on this engine.
//
// All detection passes are independent: a pass that cannot complete
// contributes zero findings rather than aborting the rest. The finding
// list is emitted in pass declaration order, then sub-entity order.
type Engine struct {
	// SurfaceThreshold overrides DefaultSurfaceThreshold when positive.
	SurfaceThreshold int

	// InstructionsThreshold overrides DefaultInstructionsThreshold when
	// positive.
	InstructionsThreshold int
}

// Scan runs every detection pass and returns the ordered finding list.
// Callers append any protocol-specific findings (e.g. the live probe) and
// assemble the final Result with Compose.
func (e *Engine) Scan(manifest document.Value, entities []Entity, tr Transport) []finding.Finding {
	var findings []finding.Finding

	findings = append(findings, e.entityFindings(entities)...)
	findings = append(findings, e.crossEntityFindings(entities)...)
	findings = append(findings, e.manifestFindings(manifest, entities, tr)...)
	findings = append(findings, e.authPostureFindings(tr)...)
	findings = append(findings, e.leakageFindings(manifest, entities)...)
	findings = append(findings, e.headerFindings(tr)...)

	return findings
}

// entityFindings scans every declared sub-entity's free text and
// parameters against the detector catalogs.
func (e *Engine) entityFindings(entities []Entity) []finding.Finding {
	var findings []finding.Finding

	for _, ent := range entities {
		if m, ok := pattern.Scan(ent.Description, pattern.HiddenInstructions); ok {
			findings = append(findings, finding.New(
				finding.CategoryPromptInjection,
				finding.SeverityCritical,
				fmt.Sprintf("Hidden instruction in %s description", ent.Kind),
				fmt.Sprintf("The description of %s %q contains a %s directed at the model rather than the user.", ent.Kind, ent.Name, m.Label),
			).WithEvidence(m.Text).WithSubject(ent.Name).
				WithRecommendation("Remove model-directed language from entity descriptions; describe behavior for humans only."))
		}

		if m, ok := pattern.Scan(ent.Description, pattern.SensitivePaths); ok {
			findings = append(findings, finding.New(
				finding.CategoryDataExfiltration,
				finding.SeverityHigh,
				fmt.Sprintf("Sensitive path reference in %s description", ent.Kind),
				fmt.Sprintf("The description of %s %q references a %s.", ent.Kind, ent.Name, m.Label),
			).WithEvidence(m.Text).WithSubject(ent.Name).
				WithRecommendation("Entities should not advertise access to credential stores or sensitive filesystem locations."))
		}

		if m, ok := pattern.Scan(ent.Description, pattern.Shadowing); ok {
			findings = append(findings, finding.New(
				finding.CategoryToolShadowing,
				finding.SeverityHigh,
				fmt.Sprintf("Cross-entity manipulation in %s description", ent.Kind),
				fmt.Sprintf("The description of %s %q contains a %s affecting sibling entities.", ent.Kind, ent.Name, m.Label),
			).WithEvidence(m.Text).WithSubject(ent.Name).
				WithRecommendation("Descriptions must not steer how other declared entities are invoked."))
		}

		if m, ok := pattern.Scan(ent.Description, pattern.CommandInjection); ok {
			findings = append(findings, finding.New(
				finding.CategoryCommandInjection,
				finding.SeverityCritical,
				fmt.Sprintf("Command injection pattern in %s description", ent.Kind),
				fmt.Sprintf("The description of %s %q embeds a %s.", ent.Kind, ent.Name, m.Label),
			).WithEvidence(m.Text).WithSubject(ent.Name).
				WithRecommendation("Remove shell syntax from entity descriptions."))
		}

		if m, ok := pattern.Scan(ent.Description, pattern.Secrets); ok {
			findings = append(findings, finding.New(
				finding.CategorySecretExposure,
				finding.SeverityHigh,
				fmt.Sprintf("Credential material in %s description", ent.Kind),
				fmt.Sprintf("The description of %s %q contains a %s.", ent.Kind, ent.Name, m.Label),
			).WithEvidence(pattern.RedactSecret(m.Text)).WithSubject(ent.Name).
				WithRecommendation("Rotate the exposed credential and remove it from the manifest."))
		}

		for _, param := range ent.ParamNames {
			if label, ok := exfiltrationParam(param); ok {
				findings = append(findings, finding.New(
					finding.CategoryDataExfiltration,
					finding.SeverityHigh,
					"Exfiltration-shaped parameter name",
					fmt.Sprintf("%s %q declares parameter %q, which matches the exfiltration indicator %q.", entityKindTitle(ent.Kind), ent.Name, param, label),
				).WithEvidence(param).WithSubject(ent.Name).
					WithRecommendation("Avoid parameters that accept attacker-controlled destinations for data."))
			}
		}

		for _, param := range ent.OpenParams {
			findings = append(findings, finding.New(
				finding.CategoryExcessiveSurface,
				finding.SeverityMedium,
				"Open-ended parameter type",
				fmt.Sprintf("%s %q declares parameter %q accepting arbitrary structured data.", entityKindTitle(ent.Kind), ent.Name, param),
			).WithEvidence(param).WithSubject(ent.Name).
				WithRecommendation("Constrain parameter schemas to the concrete types the entity consumes."))
		}
	}

	return findings
}

// crossEntityFindings flags any entity whose description textually
// contains another entity's name, a heuristic for sibling manipulation.
func (e *Engine) crossEntityFindings(entities []Entity) []finding.Finding {
	var findings []finding.Finding

	for _, ent := range entities {
		if ent.Description == "" {
			continue
		}
		lower := strings.ToLower(ent.Description)
		for _, other := range entities {
			if other.Name == "" || other.Name == ent.Name {
				continue
			}
			if strings.Contains(lower, strings.ToLower(other.Name)) {
				findings = append(findings, finding.New(
					finding.CategoryToolShadowing,
					finding.SeverityHigh,
					"Entity references a sibling by name",
					fmt.Sprintf("The description of %s %q mentions sibling %q, which can be used to manipulate its behavior.", ent.Kind, ent.Name, other.Name),
				).WithEvidence(other.Name).WithSubject(ent.Name).
					WithRecommendation("Entity descriptions should describe only the entity itself."))
			}
		}
	}

	return findings
}

// manifestFindings applies the surface-area, transport-scheme,
// capability-declaration, and instructions-exposure heuristics.
func (e *Engine) manifestFindings(manifest document.Value, entities []Entity, tr Transport) []finding.Finding {
	var findings []finding.Finding

	threshold := e.SurfaceThreshold
	if threshold <= 0 {
		threshold = DefaultSurfaceThreshold
	}
	if len(entities) > threshold {
		findings = append(findings, finding.New(
			finding.CategoryExcessiveSurface,
			finding.SeverityMedium,
			"Excessive declared surface area",
			fmt.Sprintf("The manifest declares %d sub-entities; more than %d greatly expands the attack surface.", len(entities), threshold),
		).WithRecommendation("Split the deployment into narrowly scoped servers."))
	}

	if insecure, host := plaintextEndpoint(tr.URL); insecure {
		findings = append(findings, finding.New(
			finding.CategoryTransportSecurity,
			finding.SeverityHigh,
			"Plaintext transport",
			fmt.Sprintf("The endpoint %q serves the manifest over unencrypted HTTP on non-local host %q.", tr.URL, host),
		).WithRecommendation("Serve the endpoint over HTTPS."))
	}

	if !manifest.IsNil() && !manifest.Exists("capabilities") && !manifest.Exists("auditing") {
		findings = append(findings, finding.New(
			finding.CategoryInformationDisclosure,
			finding.SeverityLow,
			"No capability declaration",
			"The manifest declares no capabilities or audit-related fields, so callers cannot reason about what the implementation may do.",
		).WithRecommendation("Declare the capability surface explicitly."))
	}

	instrThreshold := e.InstructionsThreshold
	if instrThreshold <= 0 {
		instrThreshold = DefaultInstructionsThreshold
	}
	if instructions, ok := manifest.String("instructions"); ok && len(instructions) > instrThreshold {
		findings = append(findings, finding.New(
			finding.CategoryExcessiveSurface,
			finding.SeverityMedium,
			"Oversized instructions field",
			fmt.Sprintf("The manifest's instructions field is %d characters long; long instruction blocks inject substantial context into every client session.", len(instructions)),
		).WithRecommendation("Keep server instructions short and behavior-focused."))

		// The instructions block reaches every client session, so it gets
		// the same text scans as entity descriptions.
		for _, catalog := range []struct {
			patterns []pattern.Pattern
			category finding.Category
			severity finding.Severity
			redact   bool
			title    string
		}{
			{pattern.HiddenInstructions, finding.CategoryPromptInjection, finding.SeverityCritical, false, "Hidden instruction in manifest instructions"},
			{pattern.Shadowing, finding.CategoryToolShadowing, finding.SeverityHigh, false, "Cross-entity manipulation in manifest instructions"},
			{pattern.Secrets, finding.CategorySecretExposure, finding.SeverityHigh, true, "Credential material in manifest instructions"},
		} {
			if m, ok := pattern.Scan(instructions, catalog.patterns); ok {
				evidence := m.Text
				if catalog.redact {
					evidence = pattern.RedactSecret(m.Text)
				}
				findings = append(findings, finding.New(
					catalog.category,
					catalog.severity,
					catalog.title,
					fmt.Sprintf("The manifest's instructions field contains a %s.", m.Label),
				).WithEvidence(evidence).
					WithRecommendation("Remove the offending content from the instructions field."))
			}
		}
	}

	return findings
}

// authPostureFindings flags a manifest that was served without any
// authentication material being supplied.
func (e *Engine) authPostureFindings(tr Transport) []finding.Finding {
	if tr.Authenticated {
		return nil
	}
	return []finding.Finding{finding.New(
		finding.CategoryAuthentication,
		finding.SeverityHigh,
		"Manifest served without authentication",
		"The handshake succeeded with no authentication material supplied at all; anyone who can reach the endpoint can enumerate its capabilities.",
	).WithRecommendation("Require credentials for manifest and handshake requests.")}
}

// leakageFindings reports implementation metadata disclosure.
func (e *Engine) leakageFindings(manifest document.Value, entities []Entity) []finding.Finding {
	var findings []finding.Finding

	name, hasName := implementationName(manifest)
	version, hasVersion := implementationVersion(manifest)
	if hasVersion {
		desc := fmt.Sprintf("The handshake metadata discloses implementation version %q.", version)
		if hasName {
			desc = fmt.Sprintf("The handshake metadata discloses implementation %q version %q.", name, version)
		}
		findings = append(findings, finding.New(
			finding.CategoryInformationDisclosure,
			finding.SeverityInfo,
			"Implementation version disclosed",
			desc,
		).WithEvidence(version))
	}

	seen := map[string]bool{}
	var frameworks []string
	for _, ent := range entities {
		for _, m := range pattern.ScanAll(ent.Raw.Encode(), pattern.FrameworkFingerprints) {
			if !seen[m.Label] {
				seen[m.Label] = true
				frameworks = append(frameworks, m.Label)
			}
		}
	}
	if len(frameworks) > 0 {
		sort.Strings(frameworks)
		findings = append(findings, finding.New(
			finding.CategoryInformationDisclosure,
			finding.SeverityLow,
			"Framework fingerprints in declared data",
			fmt.Sprintf("Declared sub-entity data exposes recognizable framework names: %s.", strings.Join(frameworks, ", ")),
		).WithEvidence(strings.Join(frameworks, ", ")))
	}

	return findings
}

// headerFindings checks the recommended security response headers on
// HTTPS endpoints.
func (e *Engine) headerFindings(tr Transport) []finding.Finding {
	u, err := url.Parse(tr.URL)
	if err != nil || u.Scheme != "https" || tr.Header == nil {
		return nil
	}

	var findings []finding.Finding
	for _, h := range requiredHeaders {
		if tr.Header.Get(h) == "" {
			findings = append(findings, finding.New(
				finding.CategoryTransportSecurity,
				finding.SeverityLow,
				fmt.Sprintf("Missing %s header", h),
				fmt.Sprintf("The endpoint response does not set the recommended %s header.", h),
			).WithRecommendation(fmt.Sprintf("Set %s on all responses.", h)))
		}
	}
	for _, h := range disclosingHeaders {
		if v := tr.Header.Get(h); v != "" {
			findings = append(findings, finding.New(
				finding.CategoryInformationDisclosure,
				finding.SeverityInfo,
				fmt.Sprintf("Technology-disclosing %s header", h),
				fmt.Sprintf("The endpoint response sets %s: %q, revealing the serving technology.", h, v),
			).WithEvidence(v))
		}
	}
	return findings
}

// exfiltrationParam reports whether a parameter name matches the
// exfiltration indicator list.
func exfiltrationParam(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, indicator := range pattern.ExfiltrationParams {
		if strings.Contains(lower, indicator) {
			return indicator, true
		}
	}
	return "", false
}

// plaintextEndpoint reports whether the URL uses unencrypted HTTP on a
// non-local host. Loopback and localhost endpoints are exempt.
func plaintextEndpoint(raw string) (bool, string) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false, ""
	}
	host := u.Hostname()
	switch host {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return false, host
	}
	if strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return false, host
	}
	return true, host
}

func implementationName(manifest document.Value) (string, bool) {
	if s, ok := manifest.String("serverInfo", "name"); ok {
		return s, true
	}
	return manifest.String("provider", "organization")
}

func implementationVersion(manifest document.Value) (string, bool) {
	if s, ok := manifest.String("serverInfo", "version"); ok {
		return s, true
	}
	return manifest.String("version")
}

func entityKindTitle(kind string) string {
	if kind == "" {
		return "Entity"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
