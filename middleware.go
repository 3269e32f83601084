package authflow

import (
	"net/http"

	"github.com/dmitrymomot/authflow/pkg/logger"
)

// Middleware builds a server lifecycle per request, runs its bootstrap step
// and stores it in the request context. Bootstrap failures are not fatal: the
// request proceeds with a logged-out, initialized state.
func Middleware(cfg Config, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc, err := NewServerLifecycle(cfg, w, r, opts...)
			if err != nil {
				o.logger.ErrorContext(r.Context(), "failed to build auth lifecycle", logger.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			defer lc.Close()

			// the error is logged by the coordinator
			_ = lc.Bootstrap.Run(r.Context())

			next.ServeHTTP(w, r.WithContext(WithLifecycle(r.Context(), lc)))
		})
	}
}
