package tracing

import (
	"context"

	"github.com/gin-gonic/gin"
)

const headerTraceID = "X-Trace-ID"

// Middleware opens a span per request. An inbound X-Trace-ID header joins
// the caller's trace; the id is echoed back either way so clients can
// correlate their logs with the service's.
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if inbound := c.GetHeader(headerTraceID); inbound != "" {
			ctx = context.WithValue(ctx, traceIDKey, TraceID(inbound))
		}

		span, ctx := tracer.StartSpan(ctx, c.FullPath())
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(headerTraceID, string(span.TraceID))

		c.Next()

		span.Status = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}
		span.Finish(tracer)
	}
}
