package server

import (
	"net/http"
	"strconv"
	"time"

	"auction-house/internal/auth"
	"auction-house/internal/metrics"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// MetricsMiddleware records request counts and latencies per route.
func MetricsMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	metrics.RequestCount.WithLabelValues(c.Request.Method, path, status).Inc()
	metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
}

// RequireIdentity rejects requests without a valid bearer token and
// stores the caller identity for handlers.
func RequireIdentity(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", auth.ErrInvalidToken)
			c.Abort()
			return
		}
		identity, err := verifier.Identity(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", err)
			c.Abort()
			return
		}
		helpers.SetIdentity(c, identity)
		c.Next()
	}
}

// OptionalIdentity resolves the caller identity when a valid token is
// present and treats the request as anonymous otherwise. Listing detail
// views use this: anyone may look, only the owner sees the bid history.
func OptionalIdentity(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := auth.ExtractBearer(c.GetHeader("Authorization")); token != "" {
			if identity, err := verifier.Identity(token); err == nil {
				helpers.SetIdentity(c, identity)
			}
		}
		c.Next()
	}
}
