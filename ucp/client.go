package ucp

import (
	"context"
	"errors"
	"net/http"

	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/rule"
)

// WellKnownPath is the conventional business profile location.
const WellKnownPath = ".well-known/ucp.json"

// SpecVersion is the UCP revision the rule set targets.
const SpecVersion = "2026-01-11"

// Options configures one validation run against a UCP business profile.
type Options struct {
	// Credential is the optional authentication material for the target.
	Credential discovery.Credential

	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// NewFetcher builds the profile fetcher with the UCP discovery
// conventions. The single "ucp" envelope key confirms identity.
func NewFetcher(client *http.Client) *discovery.Fetcher {
	return discovery.NewFetcher(discovery.Options{
		WellKnownPath: WellKnownPath,
		ConfirmKeys:   []string{"ucp"},
		Client:        client,
	})
}

// Validate discovers the business profile for identity and evaluates the
// compliance rule set against it.
//
// Unlike the other protocols, a missing root profile short-circuits the
// report to the single discovery rule: without the document none of the
// profile rules has anything to evaluate.
func Validate(ctx context.Context, identity string, opts Options) (rule.Report, error) {
	res, err := NewFetcher(opts.HTTPClient).Fetch(ctx, identity, opts.Credential)
	if err != nil {
		var discErr *discovery.DiscoveryError
		if !errors.As(err, &discErr) {
			return rule.Report{}, err
		}
		rc := RuleContext{Discovered: false, AttemptLog: discErr.AttemptLog()}
		return rule.Run([]rule.Rule{DiscoveryRule(rc)}, document.Nil(), rule.RunOptions{
			Subject:     identity,
			SpecVersion: SpecVersion,
		}), nil
	}

	return rule.Run(Rules(RuleContext{Discovered: true}), res.Document, rule.RunOptions{
		Subject:          identity,
		SpecVersion:      SpecVersion,
		ResolvedLocation: res.ResolvedLocation,
	}), nil
}
