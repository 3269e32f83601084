package authfetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultCSRFHeader is the header Django reads the anti-forgery token from.
	DefaultCSRFHeader = "X-CSRFToken"
	// DefaultFlowPathPrefix marks authentication-flow endpoints whose 401
	// responses carry flow data rather than a logged-out signal.
	DefaultFlowPathPrefix = "/_allauth/"
	// RequestIDHeader carries the correlation id to the backend.
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// UnauthorizedHook runs when a non-flow endpoint answers 401. It must only
// touch local state; requests issued from inside the hook never re-trigger it.
type UnauthorizedHook func(ctx context.Context, req *http.Request)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. When the execution context
// owns a cookie jar and the client has none, the jar is attached to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero disables the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithCSRFHeader overrides the anti-forgery header name.
func WithCSRFHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.csrfHeader = name
		}
	}
}

// WithFlowPathPrefix overrides the prefix identifying flow endpoints.
func WithFlowPathPrefix(prefix string) Option {
	return func(c *Client) {
		if prefix != "" {
			c.flowPrefix = prefix
		}
	}
}

// WithHeader adds a default header sent with every request. Caller-supplied
// headers win over defaults.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" {
			c.defaults.Set(key, value)
		}
	}
}

// WithUnauthorizedHook registers the 401 interception hook.
func WithUnauthorizedHook(h UnauthorizedHook) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
