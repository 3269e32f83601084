package flow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

// DefaultLoginPath is where logout navigates.
const DefaultLoginPath = "/auth/login"

var (
	ErrNoTransport = errors.New("flow.no_transport")
	ErrNoStore     = errors.New("flow.no_store")
)

// Transport is the request authenticator the engine talks through.
// *authfetch.Client implements it.
type Transport interface {
	Do(ctx context.Context, req authfetch.Request) (*authfetch.Response, error)
	Probe(ctx context.Context, path string) error
	ExecutionContext() credential.ExecutionContext
}

// Engine runs authentication operations against one session state.
type Engine struct {
	client    Transport
	store     *sessionstate.Store
	nav       Navigator
	loginPath string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNavigator sets the navigator used by Logout. Defaults to a no-op.
func WithNavigator(n Navigator) Option {
	return func(e *Engine) {
		if n != nil {
			e.nav = n
		}
	}
}

// WithLoginPath overrides the surface Logout navigates to.
func WithLoginPath(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.loginPath = path
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
func New(client Transport, store *sessionstate.Store, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, ErrNoTransport
	}
	if store == nil {
		return nil, ErrNoStore
	}
	e := &Engine{
		client:    client,
		store:     store,
		nav:       nopNavigator{},
		loginPath: DefaultLoginPath,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("flow"))
	return e, nil
}

// State returns the read-only view of the session state.
func (e *Engine) State() sessionstate.Observer { return e.store }

// begin starts an operation: it assigns an operation id to ctx when there is
// none and takes an ordering token from the store.
func (e *Engine) begin(ctx context.Context, name string) (context.Context, *sessionstate.Op, *slog.Logger) {
	id := authfetch.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = authfetch.ContextWithRequestID(ctx, id)
	}
	log := e.logger.With(logger.Operation(name), logger.OperationID(id))
	return ctx, e.store.Begin(), log
}

func (e *Engine) call(ctx context.Context, method, path string, body any) (allauth.Outcome, error) {
	resp, err := e.client.Do(ctx, authfetch.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return allauth.Outcome{}, err
	}
	return resp.Outcome(), nil
}

// warmup asks the backend for a CSRF cookie. Failures are advisory.
func (e *Engine) warmup(ctx context.Context, log *slog.Logger, path string, always bool) {
	if !always {
		if _, ok := e.client.ExecutionContext().CSRFToken(); ok {
			return
		}
	}
	if err := e.client.Probe(ctx, path); err != nil {
		log.DebugContext(ctx, "csrf probe failed", logger.Path(path), logger.Error(err))
	}
}

// failure returns the error of a non-success outcome.
func failure(out allauth.Outcome) error {
	if out.Err != nil {
		return out.Err
	}
	return allauth.NewError(out.Status, &out.Envelope, nil)
}

func succeeded(out allauth.Outcome) bool {
	return out.Kind == allauth.OutcomeOK || out.Kind == allauth.OutcomeAuthenticated
}

func flowAttrs(out allauth.Outcome) []any {
	var attrs []any
	if out.Envelope.Data == nil {
		return attrs
	}
	for _, f := range out.Envelope.Data.Flows {
		if f.IsPending {
			attrs = append(attrs, logger.FlowID(string(f.ID)))
		}
	}
	return attrs
}
