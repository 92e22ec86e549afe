package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/newsdigest/pkg/metrics"
)

// errorHandlingMiddleware renders the last recorded HTTPError as {"error": {"code", "message"}}.
// Server-side failures log at error level, client mistakes at warn.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}
		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"code", httpErr.Code,
			"status", httpErr.Status,
			"path", c.Request.URL.Path,
			"client", getClient(c),
			"error", httpErr.Err,
		)

		c.JSON(httpErr.Status, gin.H{"error": gin.H{"code": httpErr.Code, "message": message}})
	}
}

// bodyLimitMiddleware caps request bodies; oversized JSON fails to bind with a 400.
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requestLogger logs every request and counts it by matched route.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.FullPath(), status)
		logger.Info("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"client", getClient(c),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
