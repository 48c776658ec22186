package serve

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// requestLogger logs one line per request with method, path, status, and
// latency.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Millisecond),
			"client", c.ClientIP(),
		)
	}
}

// corsMiddleware allows browser front ends on other origins to call the
// API. The service holds no state and no credentials of its own, so a
// permissive policy is acceptable.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimiter is a fixed-window per-client limiter backed by Redis.
// Only request counters are stored; no fetched document, report, or
// finding ever reaches Redis.
type rateLimiter struct {
	client *redis.Client
	limit  int
	logger *slog.Logger
}

func newRateLimiter(redisURL string, limit int, logger *slog.Logger) (*rateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &rateLimiter{
		client: redis.NewClient(opts),
		limit:  limit,
		logger: logger,
	}, nil
}

func (rl *rateLimiter) Close() error {
	return rl.client.Close()
}

// middleware rejects clients that exceed the per-minute budget. Redis
// failures fail open: an unavailable limiter must not take the API down.
func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("agentlens:ratelimit:%s:%d", c.ClientIP(), time.Now().Unix()/60)

		count, err := rl.client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			rl.logger.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rl.client.Expire(c.Request.Context(), key, 2*time.Minute)
		}
		if count > int64(rl.limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
