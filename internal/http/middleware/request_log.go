package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

// quietRoutes are polled by infrastructure and only logged at debug level when healthy.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger emits one line per request keyed by the matched route, never the raw path,
// so share tokens in signed media urls stay out of the logs.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if ids, ok := ctxutil.RequestIDsFrom(c.Request.Context()); ok {
			fields = append(fields, ids.LogFields()...)
		}
		// viewer_id is hashed by the logger.
		if v := ctxutil.GetViewer(c.Request.Context()); v.Authenticated() {
			fields = append(fields, "viewer_id", v.UserID.String())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case quietRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
