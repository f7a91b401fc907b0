package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext identifies one request in logs and error bodies.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// NewTraceContext builds the trace context of a request. When ctx carries a
// valid otel span its ids are used; otherwise traceID (the caller's
// X-Trace-ID) or a generated id. An empty requestID is generated too.
func NewTraceContext(ctx context.Context, requestID, traceID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	tc := &TraceContext{RequestID: requestID, TraceID: traceID}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		tc.TraceID = sc.TraceID().String()
		tc.SpanID = sc.SpanID().String()
		return tc
	}
	if tc.TraceID == "" {
		tc.TraceID = uuid.NewString()
	}
	tc.SpanID = uuid.NewString()[:16]
	return tc
}

// LogFields returns the ids as zap key-value pairs.
func (t *TraceContext) LogFields() []any {
	return []any{"trace_id", t.TraceID, "span_id", t.SpanID, "request_id", t.RequestID}
}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return tc
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if tc := GetTrace(ctx); tc != nil {
		return tc.RequestID
	}
	return ""
}
