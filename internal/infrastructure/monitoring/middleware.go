package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(method, path, status, time.Since(start))
	}
}

// Timer measures one lifecycle operation.
type Timer struct {
	start     time.Time
	metrics   *Metrics
	kind      string
	operation string
}

// NewTimer starts a timer for a lifecycle operation.
func NewTimer(metrics *Metrics, kind, operation string) *Timer {
	return &Timer{
		start:     time.Now(),
		metrics:   metrics,
		kind:      kind,
		operation: operation,
	}
}

// Stop stops the timer and records the outcome.
func (t *Timer) Stop(status string) {
	t.metrics.RecordLifecycleOp(t.kind, t.operation, status, time.Since(t.start))
}
