package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CorrelationIDHeader carries the correlation id over HTTP.
const CorrelationIDHeader = "X-Correlation-ID"

type contextKey string

const correlationIDContextKey contextKey = "correlation_id"

// WithCorrelationIDContext stores the correlation id on ctx.
func WithCorrelationIDContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// GetCorrelationIDFromContext returns the stored id, or "" when none is set.
func GetCorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDContextKey).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns ctx with a correlation id, generating one if absent.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := GetCorrelationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return WithCorrelationIDContext(ctx, id), id
}

// EnsureHTTPCorrelationID accepts a valid UUID from the request header and
// otherwise generates a new one. The id is written back to the header and
// stored in the request context.
func EnsureHTTPCorrelationID(r *http.Request) (*http.Request, string) {
	id := r.Header.Get(CorrelationIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
		r.Header.Set(CorrelationIDHeader, id)
	}
	return r.WithContext(WithCorrelationIDContext(r.Context(), id)), id
}

// GetLoggerFromContext returns base enriched with the context's correlation id.
func GetLoggerFromContext(ctx context.Context, base Logger) Logger {
	if id := GetCorrelationIDFromContext(ctx); id != "" {
		return base.WithCorrelationID(id)
	}
	return base
}
