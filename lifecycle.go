package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/bootstrap"
	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/flow"
	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

// ErrInvalidConfig is returned when a lifecycle cannot be built from Config.
var ErrInvalidConfig = errors.New("authflow.invalid_config")

// Lifecycle owns the session state of one page lifecycle and the components
// operating on it.
type Lifecycle struct {
	Client    *authfetch.Client
	Store     *sessionstate.Store
	Engine    *flow.Engine
	Bootstrap *bootstrap.Coordinator

	cfg    Config
	exec   credential.ExecutionContext
	nav    *recordingNavigator
	logger *slog.Logger
}

// Option configures a Lifecycle.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	jar        http.CookieJar
	navigator  flow.Navigator
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the HTTP client used to reach the backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithJar sets the cookie jar of a client lifecycle.
func WithJar(jar http.CookieJar) Option {
	return func(o *options) { o.jar = jar }
}

// WithNavigator is called with the login path after logout. The target is
// recorded either way and available through Lifecycle.Redirect.
func WithNavigator(n flow.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// NewClientLifecycle builds a browser-like lifecycle whose credentials live in
// a cookie jar.
func NewClientLifecycle(cfg Config, opts ...Option) (*Lifecycle, error) {
	o := buildOptions(opts)
	base, err := url.Parse(cfg.APIBase)
	if err != nil {
		return nil, fmt.Errorf("%w: api base: %w", ErrInvalidConfig, err)
	}
	exec, err := credential.NewJarContext(o.jar, base, cfg.cookieNames())
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return newLifecycle(cfg, exec, o)
}

// NewServerLifecycle builds a lifecycle for one inbound request. Cookies are
// read from r; when cfg.RelayCookies is set, cookies the backend sets are
// relayed to w.
func NewServerLifecycle(cfg Config, w http.ResponseWriter, r *http.Request, opts ...Option) (*Lifecycle, error) {
	o := buildOptions(opts)
	var reqOpts []credential.RequestOption
	if cfg.RelayCookies && w != nil {
		reqOpts = append(reqOpts, credential.WithRelay(w))
	}
	exec := credential.NewRequestContext(r, cfg.cookieNames(), reqOpts...)
	return newLifecycle(cfg, exec, o)
}

func buildOptions(opts []Option) *options {
	o := &options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	return o
}

func newLifecycle(cfg Config, exec credential.ExecutionContext, o *options) (*Lifecycle, error) {
	log := o.logger.With(logger.ServerRendering(exec.ServerRendering()))

	clientOpts := []authfetch.Option{
		authfetch.WithTimeout(cfg.RequestTimeout),
		authfetch.WithCSRFHeader(cfg.CSRFHeader),
		authfetch.WithFlowPathPrefix(cfg.FlowPathPrefix),
		authfetch.WithLogger(log),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, authfetch.WithHTTPClient(o.httpClient))
	}
	client, err := authfetch.New(cfg.APIBase, exec, clientOpts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	store := sessionstate.New(sessionstate.WithLogger(log))
	client.SetUnauthorizedHook(func(context.Context, *http.Request) {
		store.Clear()
	})

	nav := &recordingNavigator{next: o.navigator}
	engine, err := flow.New(client, store,
		flow.WithNavigator(nav),
		flow.WithLoginPath(cfg.LoginPath),
		flow.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	coordinator, err := bootstrap.New(engine, store, exec, bootstrap.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &Lifecycle{
		Client:    client,
		Store:     store,
		Engine:    engine,
		Bootstrap: coordinator,
		cfg:       cfg,
		exec:      exec,
		nav:       nav,
		logger:    log,
	}, nil
}

// State returns the read-only session state.
func (l *Lifecycle) State() sessionstate.Observer { return l.Store }

// ExecutionContext returns the credential context of the lifecycle.
func (l *Lifecycle) ExecutionContext() credential.ExecutionContext { return l.exec }

// Redirect returns the last navigation target requested by the engine.
func (l *Lifecycle) Redirect() (string, bool) { return l.nav.last() }

// Close ends the state subscriptions of the lifecycle.
func (l *Lifecycle) Close() { l.Store.Close() }

type recordingNavigator struct {
	next flow.Navigator

	mu     sync.Mutex
	target string
}

func (n *recordingNavigator) Navigate(ctx context.Context, path string) error {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
	if n.next != nil {
		return n.next.Navigate(ctx, path)
	}
	return nil
}

func (n *recordingNavigator) last() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, n.target != ""
}
