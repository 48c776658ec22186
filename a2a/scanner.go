package a2a

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/finding"
	"github.com/agentlens/agentlens/rule"
	"github.com/agentlens/agentlens/scan"
)

// SpecVersion is the A2A protocol revision the rule set targets.
const SpecVersion = "0.2"

// Options configures one validation or scan run against an A2A agent.
type Options struct {
	// Credential is the optional authentication material for the target.
	Credential discovery.Credential

	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client

	// Probe enables the live unauthenticated message/send probe against
	// the card's declared endpoint during a scan.
	Probe bool

	// SurfaceThreshold overrides the declared-skill count above which a
	// surface-area finding is raised. Zero keeps the default.
	SurfaceThreshold int
}

// Validate discovers the agent card for identity and evaluates the
// compliance rule set against it.
//
// Discovery failure is not an error here: the full rule set still runs
// against the nil document, the first rule fails critically carrying the
// per-candidate attempt log, and the presence rules fail naturally.
func Validate(ctx context.Context, identity string, opts Options) (rule.Report, error) {
	res, err := NewFetcher(opts.HTTPClient).Fetch(ctx, identity, opts.Credential)
	if err != nil {
		var discErr *discovery.DiscoveryError
		if !errors.As(err, &discErr) {
			return rule.Report{}, err
		}
		rules := Rules(RuleContext{Discovered: false, AttemptLog: discErr.AttemptLog()})
		return rule.Run(rules, document.Nil(), rule.RunOptions{
			Subject:     identity,
			SpecVersion: SpecVersion,
		}), nil
	}

	rules := Rules(RuleContext{Discovered: true})
	return rule.Run(rules, res.Document, rule.RunOptions{
		Subject:          identity,
		SpecVersion:      SpecVersion,
		ResolvedLocation: res.ResolvedLocation,
	}), nil
}

// Scan discovers the agent card and runs the security detection passes
// over it and every declared skill, plus the optional live probe.
//
// Discovery failure yields a single high-severity finding carrying the
// attempt log rather than an error.
func Scan(ctx context.Context, identity string, opts Options) (scan.Result, error) {
	res, err := NewFetcher(opts.HTTPClient).Fetch(ctx, identity, opts.Credential)
	if err != nil {
		var discErr *discovery.DiscoveryError
		if !errors.As(err, &discErr) {
			return scan.Result{}, err
		}
		f := finding.New(
			finding.CategoryDiscovery,
			finding.SeverityHigh,
			"Agent card could not be discovered",
			fmt.Sprintf("No agent card was found for %s after %d attempt(s).", identity, len(discErr.Attempts)),
		).WithEvidence(strings.Join(discErr.AttemptLog(), "\n")).
			WithRecommendation("Serve the agent card at the URL itself or at " + WellKnownPath + ".")
		return scan.Compose([]finding.Finding{f}, nil), nil
	}

	skills, _ := res.Document.Array("skills")
	entities := make([]scan.Entity, 0, len(skills))
	for i, skill := range skills {
		entities = append(entities, entityFromSkill(skill, i))
	}

	engine := &scan.Engine{SurfaceThreshold: opts.SurfaceThreshold}
	findings := engine.Scan(res.Document, entities, scan.Transport{
		URL:           res.ResolvedLocation,
		Header:        res.Header,
		Authenticated: res.Authenticated,
	})

	if opts.Probe {
		if endpoint, ok := res.Document.String("url"); ok && endpoint != "" {
			findings = append(findings, probeFindings(ctx, opts.HTTPClient, endpoint)...)
		}
	}

	return scan.Compose(findings, res.Document.Raw()), nil
}

// entityFromSkill flattens one declared skill into the protocol-neutral
// entity shape. Skills have no parameter schema to inspect.
func entityFromSkill(skill document.Value, index int) scan.Entity {
	name := skill.StringOr("", "name")
	if name == "" {
		name = skill.StringOr(fmt.Sprintf("skill #%d", index), "id")
	}
	return scan.Entity{
		Name:        name,
		Kind:        "skill",
		Description: skill.StringOr("", "description"),
		Raw:         skill,
	}
}

// Stack trace shapes: Go goroutine dumps, Python tracebacks, and
// Java/JavaScript "at frame(" lines.
var (
	stackTraceMarkers = []string{
		"goroutine ",
		"Traceback (most recent call last)",
	}
	frameLinePattern = regexp.MustCompile(`\bat [\w.$/<>]+\(`)
)

func probeFindings(ctx context.Context, client *http.Client, endpoint string) []finding.Finding {
	probe := Probe(ctx, client, endpoint)
	if !probe.Performed {
		return nil
	}

	var findings []finding.Finding

	if probe.Accepted {
		findings = append(findings, finding.New(
			finding.CategoryAuthentication,
			finding.SeverityHigh,
			"Agent accepts unauthenticated requests",
			fmt.Sprintf("The endpoint %s processed a message/send request that carried no authentication material.", endpoint),
		).WithRecommendation("Require authentication on the service endpoint and declare the scheme in the card."))
	}

	if probe.ErrorBody != "" && looksLikeStackTrace(probe.ErrorBody) {
		findings = append(findings, finding.New(
			finding.CategoryInformationDisclosure,
			finding.SeverityMedium,
			"Error response leaks a stack trace",
			fmt.Sprintf("The error payload from %s contains stack-trace-shaped text from the agent's runtime.", endpoint),
		).WithEvidence(truncate(probe.ErrorBody, 200)).
			WithRecommendation("Return structured error codes; never echo runtime traces to callers."))
	}

	return findings
}

func looksLikeStackTrace(body string) bool {
	for _, marker := range stackTraceMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return frameLinePattern.MatchString(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
