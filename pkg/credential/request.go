package credential

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// RequestContext is the server-rendering execution context. It reads the
// browser's cookies from the inbound request and keeps an overlay of cookies
// the backend set during this render, so later reads and forwarded Cookie
// headers reflect rotation. When a ResponseWriter is attached, absorbed
// cookies are relayed to the browser as Set-Cookie headers.
type RequestContext struct {
	inbound []*http.Cookie
	names   Names
	relay   http.ResponseWriter

	mu      sync.RWMutex
	overlay map[string]*http.Cookie
	order   []string
}

// RequestOption configures a RequestContext.
type RequestOption func(*RequestContext)

// WithRelay relays absorbed cookies to w.
func WithRelay(w http.ResponseWriter) RequestOption {
	return func(c *RequestContext) { c.relay = w }
}

// NewRequestContext snapshots the cookies of r.
func NewRequestContext(r *http.Request, names Names, opts ...RequestOption) *RequestContext {
	c := &RequestContext{
		names:   names.withDefaults(),
		overlay: make(map[string]*http.Cookie),
	}
	if r != nil {
		c.inbound = r.Cookies()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RequestContext) CSRFToken() (string, bool) {
	return c.value(c.names.CSRF)
}

func (c *RequestContext) SessionCredential() (string, bool) {
	return c.value(c.names.Session)
}

func (c *RequestContext) ServerRendering() bool { return true }

// ForwardedCookies merges inbound cookies with the overlay. Deleted cookies
// are dropped; the overlay wins on name clashes.
func (c *RequestContext) ForwardedCookies() []*http.Cookie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*http.Cookie, 0, len(c.inbound)+len(c.order))
	for _, ck := range c.inbound {
		if _, overridden := c.overlay[ck.Name]; overridden {
			continue
		}
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	for _, name := range c.order {
		ck := c.overlay[name]
		if expired(ck) {
			continue
		}
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

// Absorb stores cookies set by the backend and relays them when configured.
func (c *RequestContext) Absorb(_ *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}

	c.mu.Lock()
	for _, ck := range cookies {
		if _, seen := c.overlay[ck.Name]; !seen {
			c.order = append(c.order, ck.Name)
		}
		c.overlay[ck.Name] = ck
	}
	c.mu.Unlock()

	if c.relay == nil {
		return
	}
	for _, ck := range cookies {
		relayed := *ck
		// the browser talks to this server, not to the backend host
		relayed.Domain = ""
		http.SetCookie(c.relay, &relayed)
	}
}

func (c *RequestContext) value(name string) (string, bool) {
	c.mu.RLock()
	ck, ok := c.overlay[name]
	c.mu.RUnlock()
	if ok {
		if expired(ck) || ck.Value == "" {
			return "", false
		}
		return ck.Value, true
	}
	return lookup(c.inbound, name)
}

func expired(ck *http.Cookie) bool {
	if ck.MaxAge < 0 {
		return true
	}
	return !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
}
