// Package tracing correlates control API requests with the lifecycle
// operations and process output they trigger. Spans are logged, not
// exported; the consumer is a person reading service logs.
package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/shared/id"
)

// TraceID identifies one request end to end.
type TraceID string

// Span is one traced operation.
type Span struct {
	TraceID   TraceID
	Name      string
	StartTime time.Time
	Duration  time.Duration
	Status    int
	Err       error
	tags      []zap.Field
}

// Tracer collects finished spans and logs them off the request path.
type Tracer struct {
	log   *logging.Logger
	spans chan *Span
}

// New creates a tracer. Spans beyond the buffer are dropped, never block.
func New(log *logging.Logger) *Tracer {
	t := &Tracer{
		log:   log.Named("trace"),
		spans: make(chan *Span, 1000),
	}
	go t.drain()
	return t
}

// StartSpan opens a span, reusing the trace id already on the context when
// present.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := FromContext(ctx)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	return &Span{
		TraceID:   traceID,
		Name:      name,
		StartTime: time.Now(),
	}, ctx
}

// SetTag attaches a key/value to the span.
func (s *Span) SetTag(key, value string) {
	s.tags = append(s.tags, zap.String(key, value))
}

// Finish closes the span and hands it to the collector.
func (s *Span) Finish(t *Tracer) {
	s.Duration = time.Since(s.StartTime)
	select {
	case t.spans <- s:
	default:
		t.log.Warn("span buffer full, dropping span", zap.String("trace_id", string(s.TraceID)))
	}
}

func (t *Tracer) drain() {
	for s := range t.spans {
		fields := append([]zap.Field{
			zap.String("trace_id", string(s.TraceID)),
			zap.String("operation", s.Name),
			zap.Duration("duration", s.Duration),
			zap.Int("status", s.Status),
		}, s.tags...)

		if s.Err != nil {
			fields = append(fields, zap.Error(s.Err))
			t.log.Warn("span completed with error", fields...)
			continue
		}
		t.log.Debug("span completed", fields...)
	}
}

type contextKey struct{}

var traceIDKey contextKey

// FromContext returns the trace id on the context, empty when untraced.
func FromContext(ctx context.Context) TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(TraceID); ok {
		return traceID
	}
	return ""
}
