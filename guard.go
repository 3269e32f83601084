package authflow

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/authflow/pkg/guard"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

// NewGuard builds the route guard for requests served behind Middleware. It
// waits at most cfg.ServerWait for the per-request bootstrap.
func NewGuard(cfg Config, opts ...guard.Option) *guard.Guard {
	return newGuard(cfg, StateResolver, cfg.ServerWait, opts)
}

// Guard builds a route guard bound to the state of l. Server lifecycles wait
// cfg.ServerWait for initialization, client lifecycles cfg.ClientWait.
func (l *Lifecycle) Guard(opts ...guard.Option) *guard.Guard {
	wait := l.cfg.ClientWait
	if l.exec.ServerRendering() {
		wait = l.cfg.ServerWait
	}
	resolve := func(*http.Request) sessionstate.Observer { return l.Store }
	return newGuard(l.cfg, resolve, wait, append([]guard.Option{guard.WithLogger(l.logger)}, opts...))
}

func newGuard(cfg Config, resolve guard.Resolver, wait time.Duration, opts []guard.Option) *guard.Guard {
	base := []guard.Option{
		guard.WithWait(wait),
		guard.WithLoginPath(cfg.LoginPath),
		guard.WithHomePath(cfg.HomePath),
	}
	return guard.New(resolve, append(base, opts...)...)
}
