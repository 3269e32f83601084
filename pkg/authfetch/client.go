package authfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/credential"
	"github.com/dmitrymomot/authflow/pkg/logger"
)

// Request is the high-level request representation used by the flow engine.
type Request struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Outcome decodes the response into a tagged allauth outcome.
func (r *Response) Outcome() allauth.Outcome {
	return allauth.Decode(r.StatusCode, r.Body)
}

// Client wraps HTTP calls to the auth backend, attaching the CSRF header and
// session credentials to every request. Zero value is not usable; use New.
type Client struct {
	http           *http.Client
	base           *url.URL
	exec           credential.ExecutionContext
	timeout        time.Duration
	csrfHeader     string
	flowPrefix     string
	defaults       http.Header
	onUnauthorized UnauthorizedHook
	logger         *slog.Logger
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, exec credential.ExecutionContext, opts ...Option) (*Client, error) {
	if exec == nil {
		return nil, ErrNoExecutionContext
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		http:       &http.Client{},
		base:       base,
		exec:       exec,
		timeout:    defaultTimeout,
		csrfHeader: DefaultCSRFHeader,
		flowPrefix: DefaultFlowPathPrefix,
		defaults:   make(http.Header),
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if jc, ok := exec.(interface{ Jar() http.CookieJar }); ok && c.http.Jar == nil {
		hc := *c.http
		hc.Jar = jc.Jar()
		c.http = &hc
	}
	return c, nil
}

// SetUnauthorizedHook replaces the 401 hook. It exists because the session
// state that the hook clears is usually built after the client.
func (c *Client) SetUnauthorizedHook(h UnauthorizedHook) {
	c.onUnauthorized = h
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() *url.URL { return c.base }

// ExecutionContext returns the credential context requests are built from.
func (c *Client) ExecutionContext() credential.ExecutionContext { return c.exec }

// IsFlowEndpoint reports whether a 401 from path may carry flow data.
func (c *Client) IsFlowEndpoint(path string) bool {
	return strings.HasPrefix(path, c.flowPrefix)
}

// Do builds, authenticates and sends req, returning the buffered response for
// any status code. Transport failures are returned unchanged.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("authfetch: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("authfetch: build request: %w", err)
	}
	mergeHeaders(httpReq.Header, req.Header)

	resp, err := c.Send(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, method, req.Path, maxBodySize)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Send authenticates an arbitrary *http.Request and executes it. The caller
// owns the response body. Headers already on req win over client defaults
// but not over the CSRF header and forwarded cookies.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	c.authenticate(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(req.Context(), "auth request failed",
			logger.Method(req.Method),
			logger.Path(req.URL.Path),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}

	c.exec.Absorb(req.URL, resp.Cookies())

	c.logger.DebugContext(req.Context(), "auth request completed",
		logger.Method(req.Method),
		logger.Path(req.URL.Path),
		logger.Status(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		c.intercept(req)
	}
	return resp, nil
}

// Probe sends an OPTIONS request so the backend sets its CSRF cookie. It
// carries cookies but no CSRF header.
func (c *Client) Probe(ctx context.Context, path string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.resolve(path), nil)
	if err != nil {
		return fmt.Errorf("authfetch: build probe: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.attachCookies(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	c.exec.Absorb(req.URL, resp.Cookies())
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrProbeFailed, resp.StatusCode)
	}
	return nil
}

func (c *Client) authenticate(req *http.Request) {
	for key, values := range c.defaults {
		if _, set := req.Header[key]; !set {
			req.Header[key] = append([]string(nil), values...)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	token, _ := c.exec.CSRFToken()
	req.Header.Set(c.csrfHeader, token)

	if id := RequestIDFromContext(req.Context()); id != "" && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, id)
	}

	c.attachCookies(req)
}

// attachCookies reconstructs the Cookie header in server-rendering contexts.
// Browser-like contexts rely on the client's jar.
func (c *Client) attachCookies(req *http.Request) {
	forwarded := c.exec.ForwardedCookies()
	if !c.exec.ServerRendering() || len(forwarded) == 0 {
		return
	}
	req.Header.Del("Cookie")
	for _, ck := range forwarded {
		req.AddCookie(ck)
	}
}

func (c *Client) intercept(req *http.Request) {
	ctx := req.Context()
	if c.IsFlowEndpoint(c.relativePath(req.URL)) || c.onUnauthorized == nil || withinHook(ctx) {
		return
	}
	c.logger.InfoContext(ctx, "non-flow endpoint returned 401, clearing session",
		logger.Path(req.URL.Path),
	)
	c.onUnauthorized(context.WithValue(ctx, inHookKey{}, true), req)
}

// relativePath strips the base URL's path prefix from u.
func (c *Client) relativePath(u *url.URL) string {
	prefix := strings.TrimRight(c.base.Path, "/")
	if prefix == "" || !strings.HasPrefix(u.Path, prefix+"/") {
		return u.Path
	}
	return strings.TrimPrefix(u.Path, prefix)
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}
