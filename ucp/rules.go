package ucp

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

const specBase = "https://ucp.dev/specification"

// versionPattern matches the date-based profile version format with real
// month and day ranges, so "2025-13-40" is rejected.
var versionPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)

// namespacePattern matches reverse-domain service namespaces with at
// least three dot-separated lowercase segments, e.g. "dev.ucp.shopping".
var namespacePattern = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+){2,}$`)

// RuleContext carries the discovery outcome into the profile rules.
type RuleContext struct {
	// Discovered reports whether any candidate location yielded a profile.
	Discovered bool

	// AttemptLog lists the per-candidate failures when discovery failed.
	AttemptLog []string
}

// DiscoveryRule is the single rule a failed discovery short-circuits to.
// Without a root profile document no other rule has anything to say.
func DiscoveryRule(rc RuleContext) rule.Rule {
	return rule.Rule{
		ID:          "profile-discovered",
		Name:        "Business Profile Discovered",
		Description: "A UCP business profile was found at the target or its well-known location.",
		Severity:    rule.SeverityCritical,
		DocURL:      specBase + "/discovery",
		Evaluate: func(document.Value) rule.Result {
			if !rc.Discovered {
				res := failResult(fmt.Sprintf("no business profile found after %d attempt(s)", len(rc.AttemptLog)))
				return res.WithDetails(map[string]any{"attempts": rc.AttemptLog})
			}
			return passResult("business profile resolved")
		},
	}
}

// Rules returns the ordered compliance rule set for a discovered UCP
// business profile.
func Rules(rc RuleContext) []rule.Rule {
	return []rule.Rule{
		DiscoveryRule(rc),
		{
			ID:          "ucp-version",
			Name:        "Profile Version Declared",
			Description: "The profile declares the UCP version it implements.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/profile",
			Evaluate: func(doc document.Value) rule.Result {
				v, ok := doc.String("ucp", "version")
				if !ok || v == "" {
					return failResult("MISSING: ucp.version")
				}
				return passResult(fmt.Sprintf("ucp.version declared: %q", v))
			},
		},
		{
			ID:          "ucp-version-format",
			Name:        "Profile Version Format",
			Description: "The declared version uses the YYYY-MM-DD format with a real calendar date.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/profile",
			Evaluate: func(doc document.Value) rule.Result {
				v, ok := doc.String("ucp", "version")
				if !ok || v == "" {
					return failResult("MISSING: ucp.version to check format of")
				}
				if !versionPattern.MatchString(v) {
					return failResult(fmt.Sprintf("version %q does not match the YYYY-MM-DD format", v))
				}
				return passResult(fmt.Sprintf("version %q matches the YYYY-MM-DD format", v))
			},
		},
		{
			ID:          "services-declared",
			Name:        "Services Declared",
			Description: "The profile declares at least one service.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/services",
			Evaluate: func(doc document.Value) rule.Result {
				services, ok := doc.Map("ucp", "services")
				if !ok {
					return failResult("MISSING: ucp.services")
				}
				if len(services) == 0 {
					return failResult("profile declares no services")
				}
				return passResult(fmt.Sprintf("%d service(s) declared: %s",
					len(services), strings.Join(sortedKeys(services), ", ")))
			},
		},
		{
			ID:          "service-versions",
			Name:        "Service Version Formats",
			Description: "Every declared service carries a YYYY-MM-DD version.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/services",
			Evaluate: func(doc document.Value) rule.Result {
				return eachService(doc, func(key string, svc document.Value) (string, bool) {
					v, ok := svc.String("version")
					if !ok || v == "" {
						return fmt.Sprintf("%s (no version)", key), false
					}
					if !versionPattern.MatchString(v) {
						return fmt.Sprintf("%s (%q)", key, v), false
					}
					return "", true
				}, "a well-formed version")
			},
		},
		{
			ID:          "service-namespaces",
			Name:        "Service Namespaces",
			Description: "Service keys are reverse-domain namespaces of at least three segments.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/services",
			Evaluate: func(doc document.Value) rule.Result {
				return eachService(doc, func(key string, _ document.Value) (string, bool) {
					if !namespacePattern.MatchString(key) {
						return key, false
					}
					return "", true
				}, "a reverse-domain namespace")
			},
		},
		{
			ID:          "service-extends",
			Name:        "Service Extension References",
			Description: "Every extends reference resolves to another declared service.",
			Severity:    rule.SeverityWarning,
			DocURL:      specBase + "/services",
			Evaluate: func(doc document.Value) rule.Result {
				services, ok := doc.Map("ucp", "services")
				if !ok {
					return failResult("MISSING: ucp.services to check")
				}
				var orphans []string
				for _, key := range sortedKeys(services) {
					svc, _ := doc.Get("ucp", "services", key)
					parent, has := svc.String("extends")
					if !has || parent == "" {
						continue
					}
					if _, present := services[parent]; !present {
						orphans = append(orphans, fmt.Sprintf("%s extends undeclared %q", key, parent))
					}
				}
				if len(orphans) > 0 {
					return failResult(fmt.Sprintf("%d orphaned extension reference(s): %s",
						len(orphans), strings.Join(orphans, "; ")))
				}
				return passResult("all extension references resolve")
			},
		},
		{
			ID:          "service-endpoints",
			Name:        "Encrypted Service Endpoints",
			Description: "Every declared service endpoint uses HTTPS, unless loopback.",
			Severity:    rule.SeverityCritical,
			DocURL:      specBase + "/services",
			Evaluate: func(doc document.Value) rule.Result {
				services, ok := doc.Map("ucp", "services")
				if !ok {
					return failResult("MISSING: ucp.services to check")
				}
				var offenders []string
				declared := 0
				for _, key := range sortedKeys(services) {
					svc, _ := doc.Get("ucp", "services", key)
					endpoint, has := svc.String("endpoint")
					if !has || endpoint == "" {
						continue
					}
					declared++
					if !encryptedOrLoopback(endpoint) {
						offenders = append(offenders, fmt.Sprintf("%s (%s)", key, endpoint))
					}
				}
				if len(offenders) > 0 {
					return failResult(fmt.Sprintf("%d plaintext service endpoint(s): %s",
						len(offenders), strings.Join(offenders, ", ")))
				}
				if declared == 0 {
					return passResult("no service endpoints declared")
				}
				return passResult(fmt.Sprintf("all %d declared endpoint(s) use HTTPS or loopback", declared))
			},
		},
		{
			ID:          "capabilities-advisory",
			Name:        "Capability Declarations",
			Description: "Reports how many services declare capabilities.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(doc document.Value) rule.Result {
				services, ok := doc.Map("ucp", "services")
				if !ok || len(services) == 0 {
					return passResult("no services to check for capabilities")
				}
				withCaps := 0
				for _, key := range sortedKeys(services) {
					svc, _ := doc.Get("ucp", "services", key)
					if caps, has := svc.Array("capabilities"); has && len(caps) > 0 {
						withCaps++
					}
				}
				return passResult(fmt.Sprintf("%d of %d service(s) declare capabilities", withCaps, len(services)))
			},
		},
		{
			ID:          "payment-handler-advisory",
			Name:        "Payment Handler",
			Description: "Reports whether a payment handler service is declared.",
			Severity:    rule.SeverityInfo,
			Evaluate: func(doc document.Value) rule.Result {
				services, ok := doc.Map("ucp", "services")
				if !ok {
					return passResult("no services to check for a payment handler")
				}
				for _, key := range sortedKeys(services) {
					if strings.Contains(key, "payment") {
						return passResult(fmt.Sprintf("payment handler declared: %s", key))
					}
				}
				return passResult("no payment handler service declared")
			},
		},
	}
}

// eachService applies a per-service predicate over the keyed collection
// and enumerates every offending key in the failure message.
func eachService(doc document.Value, check func(key string, svc document.Value) (string, bool), requirement string) rule.Result {
	services, ok := doc.Map("ucp", "services")
	if !ok {
		return failResult("MISSING: ucp.services to check")
	}
	if len(services) == 0 {
		return failResult("profile declares no services to check")
	}
	var offenders []string
	for _, key := range sortedKeys(services) {
		svc, _ := doc.Get("ucp", "services", key)
		if label, pass := check(key, svc); !pass {
			offenders = append(offenders, label)
		}
	}
	if len(offenders) > 0 {
		return failResult(fmt.Sprintf("%d service(s) without %s: %s",
			len(offenders), requirement, strings.Join(offenders, ", ")))
	}
	return passResult(fmt.Sprintf("all %d service(s) declare %s", len(services), requirement))
}

func encryptedOrLoopback(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	if u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
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
