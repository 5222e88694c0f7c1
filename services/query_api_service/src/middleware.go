package queryapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickdeals/price-intel/common/db"
	"github.com/quickdeals/price-intel/common/errtax"
	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20 // 10 MB

// RequestValidationMiddleware rejects oversized bodies and missing
// content-type on mutating requests.
func RequestValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength > 0 && c.ContentType() != "application/json" {
				writeError(c, errtax.New(errtax.UnsupportedMediaType, "Content-Type must be application/json"), "")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware sets the baseline hardening headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	}
}

// RateLimitMiddleware enforces the per-endpoint-group token bucket,
// keyed by remote address.
func RateLimitMiddleware(limiters *RateLimiters, group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.Allow(group, c.ClientIP()) {
			err := errtax.New(errtax.RateLimitError, "rate limit exceeded, slow down",
				"retry after a short delay")
			writeError(c, err, requestIDFrom(c))
			c.Abort()
			return
		}
		c.Next()
	}
}

const requestIDKey = "request_id"

// RequestLoggingMiddleware assigns a request id and logs start/end.
func RequestLoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		start := time.Now()

		c.Next()

		log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// DBHealthGateMiddleware runs SELECT 1 before the routes that hit the
// database on the critical path, returning 503 on failure rather than
// letting the request reach a dead pool.
func DBHealthGateMiddleware(database *db.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.HealthCheck(ctx); err != nil {
			writeError(c, errtax.Wrap(errtax.DatabaseError, "database unavailable", err), requestIDFrom(c))
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError renders the common error envelope, taking the
// HTTP status from the taxonomy error's own mapping rather than matching on
// error-message substrings the way order_controller.go does.
func writeError(c *gin.Context, err *errtax.Error, requestID string) {
	if requestID != "" {
		err = err.WithRequestID(requestID)
	}
	c.JSON(err.HTTPStatus(), ErrorEnvelope{Error: ErrorBody{
		Code:        string(err.Code),
		Message:     err.Message,
		Suggestions: err.Suggestions,
		Timestamp:   err.Timestamp,
		RequestID:   err.RequestID,
	}})
}
