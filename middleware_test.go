package authflow_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authflow"
	"github.com/dmitrymomot/authflow/pkg/authfetch"
)

func authfetchGet(path string) authfetch.Request {
	return authfetch.Request{Method: http.MethodGet, Path: path}
}

func guardedApp(cfg authflow.Config) http.Handler {
	g := authflow.NewGuard(cfg)
	mux := http.NewServeMux()
	mux.Handle("GET /dashboard", g.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc, ok := authflow.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("hello " + lc.State().Snapshot().User.Email))
	})))
	mux.Handle("GET /auth/login", g.GuestOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("login form"))
	})))
	return authflow.Middleware(cfg)(mux)
}

func TestMiddleware_AnonymousRenderSkipsBackend(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := fakeBackend(t, &hits)
	app := guardedApp(testConfig(srv.URL))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.Zero(t, hits.Load())

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login form", rec.Body.String())
}

func TestMiddleware_ForwardsSessionCookie(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := fakeBackend(t, &hits)
	app := guardedApp(testConfig(srv.URL))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "s-42"})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello user@x.com", rec.Body.String())
	assert.Equal(t, int32(1), hits.Load())

	req = httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "s-42"})
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestMiddleware_StaleSessionCookie(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := fakeBackend(t, &hits)
	app := guardedApp(testConfig(srv.URL))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "expired"})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int32(1), hits.Load())
}
