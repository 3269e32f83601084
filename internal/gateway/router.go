// Package gateway is the HTTP surface of authgate: a server-rendering
// front for the allauth backend. Each request gets its own auth lifecycle
// built from the browser's cookies; cookies the backend sets are relayed back.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authflow"
	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/authfetch"
	"github.com/dmitrymomot/authflow/pkg/guard"
	"github.com/dmitrymomot/authflow/pkg/httpserver"
	"github.com/dmitrymomot/authflow/pkg/logger"
)

// Option configures the router.
type Option func(*router)

type router struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHTTPClient sets the client used to reach the backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *router) { r.httpClient = hc }
}

// NewRouter builds the gateway handler.
func NewRouter(cfg authflow.Config, opts ...Option) http.Handler {
	rt := &router{logger: logger.Discard()}
	for _, opt := range opts {
		opt(rt)
	}

	lcOpts := []authflow.Option{authflow.WithLogger(rt.logger)}
	if rt.httpClient != nil {
		lcOpts = append(lcOpts, authflow.WithHTTPClient(rt.httpClient))
	}

	g := authflow.NewGuard(cfg, guard.WithLogger(rt.logger))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(correlate)
	r.Use(accessLog(rt.logger))

	r.Get("/health/live", httpserver.HealthHandler(rt.logger))
	r.Get("/health/ready", httpserver.HealthHandler(rt.logger, backendCheck(cfg, lcOpts)))

	r.Group(func(r chi.Router) {
		r.Use(authflow.Middleware(cfg, lcOpts...))

		r.Route("/api/auth", func(r chi.Router) {
			r.Get("/session", getSession)
			r.Post("/login", login)
			r.Post("/signup", signup)
			r.Post("/logout", logout)
			r.Post("/verify-email", verifyEmail)
			r.Post("/verify-email/resend", resendVerification)
			r.Post("/code/request", requestCode)
			r.Post("/code/confirm", confirmCode)
		})

		r.With(g.GuestOnly).Get(cfg.LoginPath, loginPage)
		r.With(g.RequireAuth).Get("/me", me)
	})

	return r
}

// correlate forwards chi's request id to the backend as X-Request-ID.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(authfetch.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.Status(ww.Status()),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// backendCheck probes the session endpoint with a throwaway client lifecycle.
func backendCheck(cfg authflow.Config, opts []authflow.Option) httpserver.Check {
	return func(ctx context.Context) error {
		lc, err := authflow.NewClientLifecycle(cfg, opts...)
		if err != nil {
			return err
		}
		defer lc.Close()
		return lc.Client.Probe(ctx, allauth.PathSession)
	}
}
