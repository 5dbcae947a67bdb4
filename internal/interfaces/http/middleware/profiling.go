package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

// Profiling attaches Pyroscope labels (route pattern, method, controller and
// the session role) to the rest of the request. With enabled false it is a
// pass-through.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		telemetry.ProfilingLabelMethod:     c.Request.Method,
		telemetry.ProfilingLabelRoute:      route,
		telemetry.ProfilingLabelController: controllerOf(route),
	}
	if sess, ok := GetSession(c); ok {
		labels[telemetry.ProfilingLabelRole] = string(sess.Role)
	}
	return labels
}

// controllerOf returns the first segment after /api/<version>, e.g.
// "/api/v1/sales/:id/documents" -> "sales".
func controllerOf(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" {
		return parts[2]
	}
	return ""
}
