package credential

import (
	"net/http"
	"net/url"
)

// Default Django cookie names.
const (
	DefaultCSRFCookie    = "csrftoken"
	DefaultSessionCookie = "sessionid"
)

// Source reads the two ambient credentials every authenticated request
// presents. Implementations re-read on every call: a previous response in the
// same logical operation may have rotated them.
type Source interface {
	CSRFToken() (string, bool)
	SessionCredential() (string, bool)
}

// ExecutionContext describes where the client runs.
//
// In a browser-like context cookies travel with the HTTP client's jar. In a
// server-rendering context the outbound client has no access to the browser's
// cookies, so the inbound request's cookies must be forwarded by hand and
// Set-Cookie headers from the backend must be absorbed.
type ExecutionContext interface {
	Source
	// ServerRendering reports whether the first render happens on a server process.
	ServerRendering() bool
	// ForwardedCookies returns the cookies to attach manually to an outbound
	// request. Browser-like contexts return nil.
	ForwardedCookies() []*http.Cookie
	// Absorb records cookies set by a backend response.
	Absorb(u *url.URL, cookies []*http.Cookie)
}

// Names configures the CSRF and session cookie names.
type Names struct {
	CSRF    string
	Session string
}

func (n Names) withDefaults() Names {
	if n.CSRF == "" {
		n.CSRF = DefaultCSRFCookie
	}
	if n.Session == "" {
		n.Session = DefaultSessionCookie
	}
	return n
}

// lookup returns the last non-empty cookie named name.
func lookup(cookies []*http.Cookie, name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			value, found = c.Value, true
		}
	}
	return value, found
}
