package serve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentlens/agentlens/config"
)

// Server is the HTTP API surface over the validation and scanning
// engines. It holds no state between requests beyond the optional rate
// limiter counters; nothing fetched from a target is ever persisted.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *gin.Engine
	limiter  *rateLimiter
	tp       *sdktrace.TracerProvider
	tracer   trace.Tracer
	requests metric.Int64Counter
}

// NewServer assembles the API server from configuration.
func NewServer(cfg *config.Config, logger *slog.Logger, meter metric.Meter) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tp := NewTracerProvider(logger)

	requests, err := meter.Int64Counter("agentlens.requests",
		metric.WithDescription("API requests by operation and protocol"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		tp:       tp,
		tracer:   tp.Tracer("agentlens"),
		requests: requests,
	}

	if cfg.Server.RedisURL != "" {
		limiter, err := newRateLimiter(cfg.Server.RedisURL, cfg.Server.GetRateLimit(), logger)
		if err != nil {
			return nil, err
		}
		s.limiter = limiter
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), corsMiddleware())
	if s.limiter != nil {
		engine.Use(s.limiter.middleware())
	}

	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api/v1")
	api.POST("/validate", s.handleValidate)
	api.POST("/scan", s.handleScan)

	s.engine = engine
	return s, nil
}

// Handler exposes the HTTP handler, used by tests and embedding callers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API until ctx is cancelled, then shuts down gracefully
// within the configured grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.GetAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.GetShutdownTimeout())
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if s.limiter != nil {
		if cerr := s.limiter.Close(); cerr != nil {
			s.logger.Warn("closing rate limiter", "error", cerr)
		}
	}
	if terr := s.tp.Shutdown(shutdownCtx); terr != nil {
		s.logger.Warn("shutting down tracer provider", "error", terr)
	}
	return err
}
