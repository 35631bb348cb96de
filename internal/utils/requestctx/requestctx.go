// Package requestctx carries request-scoped identifiers through context.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	jobIDKey
)

// WithRequestID returns ctx carrying the HTTP request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithJobID returns ctx carrying the video job id. Provider adapters log it
// so remote calls can be traced back to the job they serve.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return withString(ctx, jobIDKey, jobID)
}

// JobID returns the job id stored in ctx, if any.
func JobID(ctx context.Context) string {
	return stringValue(ctx, jobIDKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
