package flow_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/flow"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

const (
	sessionBody = `{"status":200,"data":{"user":{"id":"1","display":"a","email":"a@b.com","has_usable_password":true},"methods":[]},"meta":{"is_authenticated":true}}`
	anonBody    = `{"status":401,"data":{"flows":[{"id":"login"},{"id":"signup"}]},"meta":{"is_authenticated":false}}`
	verifyBody  = `{"status":401,"data":{"flows":[{"id":"login"},{"id":"verify_email","is_pending":true}]},"meta":{"is_authenticated":false}}`
	codeBody    = `{"status":401,"data":{"flows":[{"id":"login_by_code","is_pending":true}]},"meta":{"is_authenticated":false}}`
	invalidBody = `{"status":400,"errors":[{"code":"invalid","param":"password","message":"The password is incorrect."}]}`
	okBody      = `{"status":200}`
)

// backend emulates the allauth browser API. Unrouted OPTIONS requests set
// the CSRF cookie; any other unrouted request answers 404.
type backend struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
	ids    []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.hits[key]++
	if r.Method != http.MethodOptions {
		b.ids = append(b.ids, r.Header.Get(authfetch.RequestIDHeader))
	}
	h := b.routes[key]
	b.mu.Unlock()

	switch {
	case h != nil:
		h(w, r)
	case r.Method == http.MethodOptions:
		http.SetCookie(w, &http.Cookie{Name: credential.DefaultCSRFCookie, Value: "csrf-1", Path: "/"})
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *backend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *backend) respond(method, path string, status int, body string) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *backend) requestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ids...)
}

type fixture struct {
	engine *flow.Engine
	store  *sessionstate.Store
	exec   *credential.JarContext
	client *authfetch.Client
}

func newFixture(t *testing.T, b *backend, opts ...flow.Option) fixture {
	t.Helper()
	base, err := url.Parse(b.srv.URL)
	require.NoError(t, err)
	exec, err := credential.NewJarContext(nil, base, credential.Names{})
	require.NoError(t, err)
	client, err := authfetch.New(b.srv.URL, exec)
	require.NoError(t, err)
	store := sessionstate.New()
	client.SetUnauthorizedHook(func(context.Context, *http.Request) { store.Clear() })
	engine, err := flow.New(client, store, opts...)
	require.NoError(t, err)
	return fixture{engine: engine, store: store, exec: exec, client: client}
}

// seedCSRF stores a CSRF cookie so operations skip the warm-up probe.
func (f fixture) seedCSRF(t *testing.T, b *backend) {
	t.Helper()
	u, err := url.Parse(b.srv.URL)
	require.NoError(t, err)
	f.exec.Jar().SetCookies(u, []*http.Cookie{{Name: credential.DefaultCSRFCookie, Value: "seeded", Path: "/"}})
}

type navigatorMock struct{ mock.Mock }

func (m *navigatorMock) Navigate(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func requireConsistent(t *testing.T, s *sessionstate.Store) {
	t.Helper()
	snap := s.Snapshot()
	if snap.Authenticated {
		require.NotNil(t, snap.User, "authenticated without a user")
	}
	require.False(t, snap.Loading, "loading left set")
}
