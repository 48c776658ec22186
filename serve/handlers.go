package serve

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentlens/agentlens"
	"github.com/agentlens/agentlens/a2a"
	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/mcp"
	"github.com/agentlens/agentlens/ucp"
)

// Request is the body of both API operations.
type Request struct {
	// Type selects the protocol: "mcp", "a2a", or "ucp".
	Type string `json:"type"`

	// URL is the target identity.
	URL string `json:"url"`

	// Auth is the optional credential for the target.
	Auth *discovery.Credential `json:"auth,omitempty"`

	// Probe overrides the configured live-probe setting for agent scans.
	Probe *bool `json:"probe,omitempty"`
}

// validateRequest rejects bad input before any network activity.
func validateRequest(req *Request) string {
	switch req.Type {
	case "mcp", "a2a", "ucp":
	case "":
		return "type is required"
	default:
		return "type must be one of mcp, a2a, ucp"
	}
	if req.URL == "" {
		return "url is required"
	}
	u, err := url.Parse(req.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "url must be an absolute http(s) URL"
	}
	if req.Auth != nil && !req.Auth.IsZero() && !req.Auth.Type.IsValid() {
		return "auth.type must be one of none, bearer, basic, apiKey"
	}
	return ""
}

func (req *Request) credential() discovery.Credential {
	if req.Auth == nil {
		return discovery.Credential{}
	}
	return *req.Auth
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": agentlens.Version})
}

func (s *Server) handleValidate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if msg := validateRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx, span := s.tracer.Start(c.Request.Context(), "validate",
		trace.WithAttributes(attribute.String("protocol", req.Type)))
	defer span.End()
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", "validate"),
		attribute.String("protocol", req.Type),
	))

	ctx, cancel := requestDeadline(ctx, s.cfg.Fetch.GetTimeout())
	defer cancel()

	cred := req.credential()
	var (
		report any
		err    error
	)
	switch req.Type {
	case "mcp":
		report, err = mcp.Validate(ctx, req.URL, mcp.Options{Credential: cred})
	case "a2a":
		report, err = a2a.Validate(ctx, req.URL, a2a.Options{Credential: cred})
	case "ucp":
		report, err = ucp.Validate(ctx, req.URL, ucp.Options{Credential: cred})
	}
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleScan(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if msg := validateRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if req.Type == "ucp" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "security scanning is not available for ucp targets"})
		return
	}

	ctx, span := s.tracer.Start(c.Request.Context(), "scan",
		trace.WithAttributes(attribute.String("protocol", req.Type)))
	defer span.End()
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", "scan"),
		attribute.String("protocol", req.Type),
	))

	// A scan can take several round trips against a slow target; bound it
	// independently of the per-request fetch timeout.
	ctx, cancel := requestDeadline(ctx, s.cfg.Fetch.GetTimeout())
	defer cancel()

	cred := req.credential()
	var (
		result any
		err    error
	)
	switch req.Type {
	case "mcp":
		result, err = mcp.Scan(ctx, req.URL, mcp.Options{
			Credential:       cred,
			SurfaceThreshold: s.cfg.Scan.SurfaceThreshold,
		})
	case "a2a":
		probe := s.cfg.Scan.ProbeEnabled()
		if req.Probe != nil {
			probe = *req.Probe
		}
		result, err = a2a.Scan(ctx, req.URL, a2a.Options{
			Credential:       cred,
			Probe:            probe,
			SurfaceThreshold: s.cfg.Scan.SurfaceThreshold,
		})
	}
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// requestDeadline allows a whole run five fetch timeouts: discovery
// candidates or handshake steps, the listing, the probe, and slack.
func requestDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*timeout)
}
