package authflow

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

type lifecycleKey struct{}

// WithLifecycle stores lc in ctx.
func WithLifecycle(ctx context.Context, lc *Lifecycle) context.Context {
	return context.WithValue(ctx, lifecycleKey{}, lc)
}

// FromContext returns the lifecycle stored by WithLifecycle or Middleware.
func FromContext(ctx context.Context) (*Lifecycle, bool) {
	lc, ok := ctx.Value(lifecycleKey{}).(*Lifecycle)
	return lc, ok && lc != nil
}

// StateResolver returns the session state of the lifecycle attached to r,
// for use with guard.New.
func StateResolver(r *http.Request) sessionstate.Observer {
	lc, ok := FromContext(r.Context())
	if !ok {
		return nil
	}
	return lc.State()
}
