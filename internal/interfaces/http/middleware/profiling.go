package middleware

import (
	"context"
	"runtime/pprof"
	"strings"

	"github.com/gin-gonic/gin"
)

// Profiling tags the goroutine serving a request with route and method pprof
// labels, which the continuous profiler attaches to its samples. Unmatched
// routes and documentation pages are left unlabeled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || strings.HasPrefix(route, "/swagger") || route == "/health" || route == "/ready" {
			c.Next()
			return
		}
		labels := pprof.Labels("route", route, "method", c.Request.Method)
		pprof.Do(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
