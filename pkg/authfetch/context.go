package authfetch

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authflow/pkg/logger"
)

type (
	requestIDKey struct{}
	inHookKey    struct{}
)

// ContextWithRequestID stores the id forwarded as X-Request-ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withinHook(ctx context.Context) bool {
	v, _ := ctx.Value(inHookKey{}).(bool)
	return v
}

// LogExtractor adds the request id of ctx to log records as "request_id".
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := RequestIDFromContext(ctx); id != "" {
		return logger.RequestID(id), true
	}
	return slog.Attr{}, false
}
