package credential_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authflow/pkg/credential"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJarContext(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "http://api.example.com")

	t.Run("reads fresh values on every call", func(t *testing.T) {
		t.Parallel()
		ctx, err := credential.NewJarContext(nil, base, credential.Names{})
		require.NoError(t, err)

		_, ok := ctx.CSRFToken()
		assert.False(t, ok)

		ctx.Jar().SetCookies(base, []*http.Cookie{{Name: "csrftoken", Value: "one"}})
		token, ok := ctx.CSRFToken()
		require.True(t, ok)
		assert.Equal(t, "one", token)

		ctx.Jar().SetCookies(base, []*http.Cookie{{Name: "csrftoken", Value: "two"}})
		token, _ = ctx.CSRFToken()
		assert.Equal(t, "two", token)
	})

	t.Run("custom names", func(t *testing.T) {
		t.Parallel()
		ctx, err := credential.NewJarContext(nil, base, credential.Names{CSRF: "xsrf", Session: "sid"})
		require.NoError(t, err)
		ctx.Jar().SetCookies(base, []*http.Cookie{{Name: "sid", Value: "s-1"}, {Name: "sessionid", Value: "ignored"}})

		sid, ok := ctx.SessionCredential()
		require.True(t, ok)
		assert.Equal(t, "s-1", sid)
	})

	t.Run("browser semantics", func(t *testing.T) {
		t.Parallel()
		ctx, err := credential.NewJarContext(nil, base, credential.Names{})
		require.NoError(t, err)
		assert.False(t, ctx.ServerRendering())
		assert.Nil(t, ctx.ForwardedCookies())
	})

	t.Run("requires base url", func(t *testing.T) {
		t.Parallel()
		_, err := credential.NewJarContext(nil, nil, credential.Names{})
		assert.ErrorIs(t, err, credential.ErrNoBaseURL)
	})
}

func TestRequestContext(t *testing.T) {
	t.Parallel()

	inbound := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		r.AddCookie(&http.Cookie{Name: "csrftoken", Value: "c-1"})
		r.AddCookie(&http.Cookie{Name: "sessionid", Value: "s-1"})
		r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
		return r
	}

	t.Run("reads inbound cookies", func(t *testing.T) {
		t.Parallel()
		ctx := credential.NewRequestContext(inbound(), credential.Names{})
		assert.True(t, ctx.ServerRendering())

		token, ok := ctx.CSRFToken()
		require.True(t, ok)
		assert.Equal(t, "c-1", token)
		sid, ok := ctx.SessionCredential()
		require.True(t, ok)
		assert.Equal(t, "s-1", sid)
		assert.Len(t, ctx.ForwardedCookies(), 3)
	})

	t.Run("no cookies", func(t *testing.T) {
		t.Parallel()
		ctx := credential.NewRequestContext(httptest.NewRequest(http.MethodGet, "/", nil), credential.Names{})
		_, ok := ctx.SessionCredential()
		assert.False(t, ok)
		assert.Empty(t, ctx.ForwardedCookies())
	})

	t.Run("absorbed cookies override inbound ones", func(t *testing.T) {
		t.Parallel()
		ctx := credential.NewRequestContext(inbound(), credential.Names{})
		ctx.Absorb(nil, []*http.Cookie{
			{Name: "csrftoken", Value: "c-2"},
			{Name: "sessionid", Value: "", MaxAge: -1},
		})

		token, _ := ctx.CSRFToken()
		assert.Equal(t, "c-2", token)
		_, ok := ctx.SessionCredential()
		assert.False(t, ok)

		forwarded := map[string]string{}
		for _, c := range ctx.ForwardedCookies() {
			forwarded[c.Name] = c.Value
		}
		assert.Equal(t, map[string]string{"csrftoken": "c-2", "theme": "dark"}, forwarded)
	})

	t.Run("expired overlay cookie is dropped", func(t *testing.T) {
		t.Parallel()
		ctx := credential.NewRequestContext(inbound(), credential.Names{})
		ctx.Absorb(nil, []*http.Cookie{{Name: "sessionid", Value: "old", Expires: time.Now().Add(-time.Hour)}})
		_, ok := ctx.SessionCredential()
		assert.False(t, ok)
	})

	t.Run("relays set-cookie to the browser", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		ctx := credential.NewRequestContext(inbound(), credential.Names{}, credential.WithRelay(rec))
		ctx.Absorb(nil, []*http.Cookie{{Name: "sessionid", Value: "s-2", Domain: "api.example.com", Path: "/", HttpOnly: true}})

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sessionid", cookies[0].Name)
		assert.Equal(t, "s-2", cookies[0].Value)
		assert.Empty(t, cookies[0].Domain)
		assert.True(t, cookies[0].HttpOnly)
	})
}
