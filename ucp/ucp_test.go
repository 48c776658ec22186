package ucp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlens/agentlens/document"
	"github.com/agentlens/agentlens/rule"
)

func sampleProfile() map[string]any {
	return map[string]any{
		"ucp": map[string]any{
			"version": "2026-01-11",
			"services": map[string]any{
				"dev.ucp.shopping": map[string]any{
					"version":      "2026-01-11",
					"endpoint":     "https://shop.example.com/ucp",
					"capabilities": []any{"checkout"},
				},
				"dev.ucp.shopping.checkout": map[string]any{
					"version": "2026-01-11",
					"extends": "dev.ucp.shopping",
				},
			},
		},
	}
}

func profileServer(t *testing.T, mutate func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+WellKnownPath {
			http.NotFound(w, r)
			return
		}
		profile := sampleProfile()
		if mutate != nil {
			mutate(profile)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func resultByID(report rule.Report, id string) rule.Result {
	for _, res := range report.Results {
		if res.RuleID == id {
			return res
		}
	}
	return rule.Result{}
}

func TestValidateCompliantProfile(t *testing.T) {
	srv := profileServer(t, nil)

	report, err := Validate(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	assert.True(t, report.Compliant())
	assert.Equal(t, 0, report.FailedCount)
	assert.Equal(t, 0, report.WarningCount)
	assert.Equal(t, len(Rules(RuleContext{})), len(report.Results))
	assert.Equal(t, srv.URL+"/"+WellKnownPath, report.ResolvedLocation)
}

func TestValidateInvalidCalendarVersion(t *testing.T) {
	doc := document.Wrap(map[string]any{
		"ucp": map[string]any{
			"version": "2026-01-11",
			"services": map[string]any{
				"dev.ucp.shopping": map[string]any{"version": "2025-13-40"},
			},
		},
	})
	report := rule.Run(Rules(RuleContext{Discovered: true}), doc, rule.RunOptions{})

	res := resultByID(report, "service-versions")
	require.False(t, res.Passed)
	assert.Contains(t, res.Message, `"2025-13-40"`)
	assert.Equal(t, rule.SeverityWarning, res.Severity)
}

func TestValidateDiscoveryFailureShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	report, err := Validate(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	require.Len(t, report.Results, 1, "a missing profile leaves only the discovery rule")
	res := report.Results[0]
	assert.Equal(t, "profile-discovered", res.RuleID)
	assert.False(t, res.Passed)
	assert.Equal(t, rule.SeverityCritical, res.Severity)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, 0, report.PassedCount)

	attempts, ok := res.Details["attempts"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, attempts)
}

func TestNamespaceRule(t *testing.T) {
	cases := []struct {
		key   string
		valid bool
	}{
		{"dev.ucp.shopping", true},
		{"com.example.store.payments", true},
		{"shopping", false},
		{"ucp.shopping", false},
		{"Dev.Ucp.Shopping", false},
		{"dev.ucp.", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, namespacePattern.MatchString(tc.key), "namespace %q", tc.key)
	}
}

func TestExtendsOrphans(t *testing.T) {
	doc := document.Wrap(map[string]any{
		"ucp": map[string]any{
			"version": "2026-01-11",
			"services": map[string]any{
				"dev.ucp.shopping": map[string]any{"version": "2026-01-11"},
				"dev.ucp.shopping.returns": map[string]any{
					"version": "2026-01-11",
					"extends": "dev.ucp.orders",
				},
			},
		},
	})
	report := rule.Run(Rules(RuleContext{Discovered: true}), doc, rule.RunOptions{})

	res := resultByID(report, "service-extends")
	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "dev.ucp.shopping.returns")
	assert.Contains(t, res.Message, `"dev.ucp.orders"`)
}

func TestPlaintextServiceEndpoint(t *testing.T) {
	srv := profileServer(t, func(profile map[string]any) {
		ucp := profile["ucp"].(map[string]any)
		services := ucp["services"].(map[string]any)
		services["dev.ucp.shopping"].(map[string]any)["endpoint"] = "http://shop.example.com/ucp"
	})

	report, err := Validate(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	res := resultByID(report, "service-endpoints")
	require.False(t, res.Passed)
	assert.Contains(t, res.Message, "http://shop.example.com/ucp")
	assert.Equal(t, 1, report.FailedCount)
}

func TestAdvisoriesAlwaysPass(t *testing.T) {
	report := rule.Run(Rules(RuleContext{Discovered: true}), document.Wrap(map[string]any{}), rule.RunOptions{})

	assert.True(t, resultByID(report, "capabilities-advisory").Passed)
	assert.True(t, resultByID(report, "payment-handler-advisory").Passed)
	assert.False(t, resultByID(report, "ucp-version").Passed)

	// The discovery rule and the two advisories are the only passes.
	assert.Equal(t, 3, report.PassedCount)
}
