// Package guard provides route guards that gate net/http handlers on the
// session state of the current lifecycle.
//
// RequireAuth waits for the session state to be initialized, bounded by a
// timeout, and redirects to the login surface when the wait times out or the
// visitor is logged out. GuestOnly redirects logged-in visitors to the home
// surface. Guards only read the session state.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

const (
	// DefaultServerWait bounds the wait during server rendering.
	DefaultServerWait = 500 * time.Millisecond
	// DefaultClientWait bounds the wait in long-lived client lifecycles.
	DefaultClientWait = 3 * time.Second

	DefaultLoginPath = "/auth/login"
	DefaultHomePath  = "/"
)

// Resolver returns the session state observer of the lifecycle serving r, or
// nil when there is none.
type Resolver func(r *http.Request) sessionstate.Observer

// Redirector sends the visitor to path.
type Redirector func(w http.ResponseWriter, r *http.Request, path string)

// Guard builds route guard middlewares.
type Guard struct {
	resolve   Resolver
	wait      time.Duration
	loginPath string
	homePath  string
	redirect  Redirector
	logger    *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithWait sets the initialization wait bound.
func WithWait(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.wait = d
		}
	}
}

// WithLoginPath sets where unauthenticated visitors are sent.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithHomePath sets where logged-in visitors of guest pages are sent.
func WithHomePath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.homePath = path
		}
	}
}

// WithRedirector replaces the default 302 redirect.
func WithRedirector(fn Redirector) Option {
	return func(g *Guard) {
		if fn != nil {
			g.redirect = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Guard. The wait defaults to DefaultServerWait.
func New(resolve Resolver, opts ...Option) *Guard {
	g := &Guard{
		resolve:   resolve,
		wait:      DefaultServerWait,
		loginPath: DefaultLoginPath,
		homePath:  DefaultHomePath,
		redirect:  found,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("guard"))
	return g
}

// RequireAuth lets logged-in visitors through.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := g.await(r)
		if err != nil {
			g.logger.WarnContext(r.Context(), "session state unavailable, redirecting to login",
				logger.Path(r.URL.Path), logger.Error(err))
			g.redirect(w, r, g.loginPath)
			return
		}
		if !snap.LoggedIn() {
			g.redirect(w, r, g.loginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GuestOnly lets anonymous visitors through. A timed-out wait counts as
// anonymous.
func (g *Guard) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := g.await(r)
		if err == nil && snap.LoggedIn() {
			g.redirect(w, r, g.homePath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrNoSession is reported when the request has no lifecycle attached.
var ErrNoSession = errors.New("guard.no_session")

func (g *Guard) await(r *http.Request) (sessionstate.Snapshot, error) {
	var obs sessionstate.Observer
	if g.resolve != nil {
		obs = g.resolve(r)
	}
	if obs == nil {
		return sessionstate.Snapshot{}, ErrNoSession
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.wait)
	defer cancel()
	return obs.WaitInitialized(ctx)
}

func found(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusFound)
}
