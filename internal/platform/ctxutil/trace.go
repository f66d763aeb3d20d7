package ctxutil

import "context"

type traceKey struct{}

// TraceData correlates one inbound request across logs and response headers.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

func GetTraceData(ctx context.Context) (TraceData, bool) {
	if ctx == nil {
		return TraceData{}, false
	}
	td, ok := ctx.Value(traceKey{}).(TraceData)
	return td, ok
}

// LogFields returns trace_id and request_id key/value pairs for structured logging,
// or nil outside a request.
func LogFields(ctx context.Context) []any {
	td, ok := GetTraceData(ctx)
	if !ok {
		return nil
	}
	var out []any
	if td.TraceID != "" {
		out = append(out, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		out = append(out, "request_id", td.RequestID)
	}
	return out
}

// Detached keeps ctx's values but drops its cancellation, for cleanup writes that must
// finish after the caller has gone.
func Detached(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
