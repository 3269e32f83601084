package credential

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// JarContext is the browser-like execution context: credentials live in an
// http.CookieJar scoped to the backend URL, and the HTTP client sharing the
// same jar carries them automatically.
type JarContext struct {
	jar   http.CookieJar
	base  *url.URL
	names Names
}

// NewJarContext wraps jar. A nil jar gets a fresh in-memory cookiejar.
func NewJarContext(jar http.CookieJar, base *url.URL, names Names) (*JarContext, error) {
	if base == nil {
		return nil, ErrNoBaseURL
	}
	if jar == nil {
		j, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("credential: create cookie jar: %w", err)
		}
		jar = j
	}
	return &JarContext{jar: jar, base: base, names: names.withDefaults()}, nil
}

// Jar returns the jar so an http.Client can share it.
func (c *JarContext) Jar() http.CookieJar { return c.jar }

func (c *JarContext) CSRFToken() (string, bool) {
	return lookup(c.jar.Cookies(c.base), c.names.CSRF)
}

func (c *JarContext) SessionCredential() (string, bool) {
	return lookup(c.jar.Cookies(c.base), c.names.Session)
}

func (c *JarContext) ServerRendering() bool { return false }

func (c *JarContext) ForwardedCookies() []*http.Cookie { return nil }

// Absorb is a no-op: the client's jar already stored the cookies.
func (c *JarContext) Absorb(*url.URL, []*http.Cookie) {}
