package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agentlens/agentlens"
	"github.com/agentlens/agentlens/discovery"
)

// WellKnownPath is the conventional agent card location.
const WellKnownPath = ".well-known/agent.json"

// confirmKeys are the top-level card fields whose presence confirms the
// fetched document is an agent card and not an arbitrary JSON page.
var confirmKeys = []string{"name", "url", "skills", "protocolVersion"}

const maxProbeResponseBytes = 1 << 20

// NewFetcher builds the card fetcher with the A2A discovery conventions.
func NewFetcher(client *http.Client) *discovery.Fetcher {
	return discovery.NewFetcher(discovery.Options{
		WellKnownPath: WellKnownPath,
		ConfirmKeys:   confirmKeys,
		Client:        client,
	})
}

// ProbeResult is the outcome of one unauthenticated message/send request
// against the card's declared endpoint.
type ProbeResult struct {
	// Performed reports whether the probe request was actually issued.
	Performed bool

	// Accepted reports whether the endpoint returned a non-error JSON-RPC
	// response to the unauthenticated request.
	Accepted bool

	// ErrorBody is the raw error payload, when the endpoint returned one.
	ErrorBody string
}

// Probe sends one minimal unauthenticated message/send request to the
// endpoint. It never retries and converts transport failures into a
// not-performed result; an unreachable endpoint is not a finding.
func Probe(ctx context.Context, client *http.Client, endpoint string) ProbeResult {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.New().String(),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"role":      "user",
				"messageId": uuid.New().String(),
				"parts":     []any{map[string]any{"kind": "text", "text": "ping"}},
			},
		},
	})
	if err != nil {
		return ProbeResult{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ProbeResult{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", agentlens.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return ProbeResult{}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeResponseBytes))
	if err != nil {
		return ProbeResult{Performed: true}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ProbeResult{Performed: true, ErrorBody: string(payload)}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		// A non-JSON 2xx answer to an unauthenticated request still means
		// the endpoint processed it.
		return ProbeResult{Performed: true, Accepted: resp.StatusCode < 300}
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return ProbeResult{Performed: true, ErrorBody: string(envelope.Error)}
	}
	return ProbeResult{Performed: true, Accepted: resp.StatusCode < 300 && len(envelope.Result) > 0}
}
