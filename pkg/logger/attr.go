package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Operation records the auth operation name (login, signup, refresh...).
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// OperationID records the correlation id of a single engine operation.
// If id is empty, it returns an empty Attr.
func OperationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("operation_id", id)
}

// FlowID records a pending flow identifier under the key "flow".
func FlowID(id string) slog.Attr {
	return slog.String("flow", id)
}

// Status records an HTTP status code under the key "status".
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Method records an HTTP method under the key "method".
func Method(m string) slog.Attr {
	return slog.String("method", m)
}

// Path records a request path under the key "path".
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// UserID records the user identifier under the key "user_id".
// If id is nil or an empty string, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	if s, ok := id.(string); ok && s == "" {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records the request identifier under the key "request_id".
// If id is empty, it returns an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// ServerRendering records whether the call runs in a server-rendering context.
func ServerRendering(v bool) slog.Attr {
	return slog.Bool("server_rendering", v)
}
