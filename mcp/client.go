package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentlens/agentlens"
	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/document"
)

// ProtocolVersion is the MCP protocol revision this client speaks during
// the initialize handshake.
const ProtocolVersion = "2025-06-18"

const maxResponseBytes = 4 << 20

// Handshake is the combined outcome of the initialize and tools/list
// steps, flattened into one document for rule evaluation.
type Handshake struct {
	// Document merges the initialize result with the declared tools under
	// a top-level "tools" key.
	Document document.Value

	// Tools holds the declared tool entries in listing order.
	Tools []document.Value

	// SessionID is the Mcp-Session-Id the server assigned, if any.
	SessionID string

	// Header is the response header set of the initialize call.
	Header http.Header

	// Authenticated reports whether credentials were sent.
	Authenticated bool
}

// Client performs the MCP streamable-HTTP handshake against one endpoint.
type Client struct {
	endpoint   string
	cred       discovery.Credential
	httpClient *http.Client
	sessionID  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for the given endpoint.
func NewClient(endpoint string, cred discovery.Credential, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		cred:       cred,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// Handshake runs initialize, acknowledges it, and lists tools.
//
// A tools/list failure does not abort the handshake: rules run against
// the partial document and the listing failure surfaces as failing
// collection rules.
func (c *Client) Handshake(ctx context.Context) (*Handshake, error) {
	initResult, header, err := c.initialize(ctx)
	if err != nil {
		return nil, err
	}

	// Best-effort acknowledgement; servers must tolerate clients that
	// skip it, and its failure says nothing about compliance.
	c.notifyInitialized(ctx)

	merged := map[string]any{}
	if m, ok := initResult.Map(); ok {
		for k, v := range m {
			merged[k] = v
		}
	}

	var tools []document.Value
	if listed, err := c.listTools(ctx); err == nil {
		tools = listed
		raw := make([]any, len(listed))
		for i, tool := range listed {
			raw[i] = tool.Raw()
		}
		merged["tools"] = raw
	}

	return &Handshake{
		Document:      document.Wrap(merged),
		Tools:         tools,
		SessionID:     c.sessionID,
		Header:        header,
		Authenticated: !c.cred.IsZero(),
	}, nil
}

// initialize performs the initialize request and captures the session ID.
func (c *Client) initialize(ctx context.Context) (document.Value, http.Header, error) {
	result, header, err := c.call(ctx, "initialize", map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "agentlens",
			"version": agentlens.Version,
		},
	})
	if err != nil {
		return document.Nil(), nil, err
	}
	return result, header, nil
}

func (c *Client) notifyInitialized(ctx context.Context) {
	body, _ := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
}

// listTools fetches the declared tool entries.
func (c *Client) listTools(ctx context.Context) ([]document.Value, error) {
	result, _, err := c.call(ctx, "tools/list", map[string]any{})
	if err != nil {
		return nil, err
	}
	tools, ok := result.Array("tools")
	if !ok {
		return nil, agentlens.NewFormatError("mcp.ListTools",
			fmt.Errorf("%w: tools/list result has no tools array", agentlens.ErrBadDocument))
	}
	return tools, nil
}

// call issues one JSON-RPC request and unwraps the result.
func (c *Client) call(ctx context.Context, method string, params any) (document.Value, http.Header, error) {
	op := "mcp." + method

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return document.Nil(), nil, agentlens.NewInternalError(op, err)
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return document.Nil(), nil, agentlens.NewValidationError(op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return document.Nil(), nil, agentlens.NewTimeoutError(op, err)
		}
		return document.Nil(), nil, agentlens.NewNetworkError(op, fmt.Errorf("%w: %v", agentlens.ErrUnreachable, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return document.Nil(), nil, agentlens.NewNetworkError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return document.Nil(), nil, agentlens.NewNetworkError(op,
			fmt.Errorf("%w: HTTP %d", agentlens.ErrUnreachable, resp.StatusCode)).
			WithContext(map[string]any{"status": resp.StatusCode})
	}

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		c.sessionID = sid
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		payload = unwrapSSE(payload)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(payload, &rpcResp); err != nil {
		return document.Nil(), nil, agentlens.NewFormatError(op,
			fmt.Errorf("%w: %v", agentlens.ErrBadDocument, err))
	}
	if rpcResp.Error != nil {
		return document.Nil(), nil, agentlens.NewFormatError(op,
			fmt.Errorf("server error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}

	var result any
	if len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
			return document.Nil(), nil, agentlens.NewFormatError(op, err)
		}
	}
	return document.Wrap(result), resp.Header, nil
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("User-Agent", agentlens.UserAgent)
	if c.sessionID != "" {
		req.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	if err := c.cred.Apply(req.Header); err != nil {
		return nil, err
	}
	return req, nil
}

// unwrapSSE extracts the first data payload from a server-sent-events
// body, the streamable-HTTP servers' JSON-RPC response framing.
func unwrapSSE(body []byte) []byte {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			trimmed := strings.TrimSpace(data)
			if trimmed != "" {
				return []byte(trimmed)
			}
		}
	}
	return body
}
