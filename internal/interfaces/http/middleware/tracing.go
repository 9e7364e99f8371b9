// Package middleware provides the gin middleware of the points API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
	// SkipPaths are not traced
	SkipPaths []string
}

// DefaultTracingConfig returns default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "poinmhs-backend",
		Enabled:     true,
		SkipPaths:   []string{"/health", "/ready"},
	}
}

// TracingWithConfig returns the otelgin middleware. Spans are named
// "METHOD /route/:pattern".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool {
			for _, p := range cfg.SkipPaths {
				if r.URL.Path == p {
					return false
				}
			}
			return !strings.HasPrefix(r.URL.Path, "/swagger")
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanAttributes annotates the request span. Register it after
// TracingWithConfig; the principal is read after the handler chain so the
// JWT middleware may run later.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := c.GetString(logger.RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Next()

		if p := access.FromContext(c.Request.Context()); p != nil {
			span.SetAttributes(
				attribute.String("user_id", p.SubjectID.String()),
				attribute.String("role", string(p.Role)),
			)
		}
		markSpanStatus(span, c.Writer.Status())
	}
}

func markSpanStatus(span trace.Span, status int) {
	if status < http.StatusBadRequest {
		return
	}
	msg := "Client Error"
	switch {
	case status >= http.StatusInternalServerError:
		msg = "Internal Server Error"
	case status == http.StatusUnauthorized:
		msg = "Unauthorized"
	case status == http.StatusForbidden:
		msg = "Forbidden"
	case status == http.StatusNotFound:
		msg = "Not Found"
	}
	span.SetStatus(codes.Error, msg)
}
