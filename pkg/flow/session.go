package flow

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/logger"
)

// Login authenticates with email and password and then re-reads the session,
// so the state is populated from the session endpoint rather than the login
// response. A failed refresh after a successful login leaves the state logged
// out; it is logged, not returned.
func (e *Engine) Login(ctx context.Context, email, password string) error {
	ctx, op, log := e.begin(ctx, "login")
	defer op.End()

	log.InfoContext(ctx, "login attempt", logger.Path(allauth.PathLogin))
	e.warmup(ctx, log, allauth.PathLogin, false)

	out, err := e.call(ctx, http.MethodPost, allauth.PathLogin, allauth.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		log.WarnContext(ctx, "login request failed", logger.Error(err))
		return err
	}
	if !succeeded(out) {
		err := failure(out)
		log.InfoContext(ctx, "login rejected",
			append(flowAttrs(out), logger.Status(out.Status), logger.Error(err))...)
		return err
	}

	if err := e.Refresh(ctx); err != nil {
		log.WarnContext(ctx, "session refresh after login failed", logger.Error(err))
	}
	return nil
}

// SignupResult is the resolution of a successful signup.
type SignupResult struct {
	// RequiresVerification is true when the account must verify its email
	// before the session is authenticated.
	RequiresVerification bool
}

// Signup registers an account. It never marks the user logged in: a 2xx or a
// 401 with a pending verify_email flow both resolve with
// RequiresVerification set.
func (e *Engine) Signup(ctx context.Context, email, password string) (SignupResult, error) {
	ctx, op, log := e.begin(ctx, "signup")
	defer op.End()

	log.InfoContext(ctx, "signup attempt", logger.Path(allauth.PathSignup))
	e.warmup(ctx, log, allauth.PathSignup, false)

	out, err := e.call(ctx, http.MethodPost, allauth.PathSignup, allauth.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		log.WarnContext(ctx, "signup request failed", logger.Error(err))
		return SignupResult{}, err
	}

	switch {
	case succeeded(out), out.Pending(allauth.FlowVerifyEmail):
		log.InfoContext(ctx, "signup accepted, email verification required")
		return SignupResult{RequiresVerification: true}, nil
	default:
		err := failure(out)
		log.InfoContext(ctx, "signup rejected",
			append(flowAttrs(out), logger.Status(out.Status), logger.Error(err))...)
		return SignupResult{}, err
	}
}

// Logout deletes the backend session, clears the local state and navigates to
// the login surface. The backend result never prevents the local clear; a 401
// is the expected answer of an already anonymous session. Only a navigation
// error is returned.
func (e *Engine) Logout(ctx context.Context) error {
	ctx, op, log := e.begin(ctx, "logout")
	defer op.End()

	e.warmup(ctx, log, allauth.PathSession, true)

	out, err := e.call(ctx, http.MethodDelete, allauth.PathSession, nil)
	switch {
	case err != nil:
		log.WarnContext(ctx, "logout request failed, clearing local session", logger.Error(err))
	case out.Status == http.StatusUnauthorized, succeeded(out):
	default:
		log.WarnContext(ctx, "logout rejected by backend, clearing local session",
			logger.Status(out.Status), logger.Error(failure(out)))
	}

	op.Revoke()
	log.InfoContext(ctx, "logged out")

	if err := e.nav.Navigate(ctx, e.loginPath); err != nil {
		log.ErrorContext(ctx, "navigation after logout failed",
			logger.Path(e.loginPath), logger.Error(err))
		return err
	}
	return nil
}

// Refresh re-reads the session from the backend. A 2xx response replaces
// user and authenticated from data.user and meta.is_authenticated; anything
// else leaves the state logged out. Initialization always completes, whatever the outcome.
//
// A 401 is the regular answer for an anonymous session and yields a nil
// error. Transport failures, malformed bodies and other statuses are
// returned after the state has been cleared.
func (e *Engine) Refresh(ctx context.Context) error {
	ctx, op, log := e.begin(ctx, "refresh")
	defer op.End()
	defer e.store.MarkInitialized()

	out, err := e.call(ctx, http.MethodGet, allauth.PathSession, nil)
	if err != nil {
		op.Clear()
		log.WarnContext(ctx, "session refresh degraded to logged out", logger.Error(err))
		return err
	}

	if out.Kind == allauth.OutcomeAuthenticated {
		if op.SetSession(out.User, true) {
			log.DebugContext(ctx, "session refreshed", logger.UserID(out.User.ID.String()))
		}
		return nil
	}

	if out.Kind == allauth.OutcomeOK && out.Envelope.Data != nil && out.Envelope.Data.User != nil {
		// the backend knows the user but the session is not authenticated
		op.SetSession(out.Envelope.Data.User, false)
		log.DebugContext(ctx, "session has an unauthenticated user",
			logger.UserID(out.Envelope.Data.User.ID.String()))
		return nil
	}

	op.Clear()
	switch {
	case out.Kind == allauth.OutcomeOK, out.Status == http.StatusUnauthorized:
		log.DebugContext(ctx, "session is anonymous", logger.Status(out.Status))
		return nil
	default:
		err := failure(out)
		log.WarnContext(ctx, "session refresh degraded to logged out",
			logger.Status(out.Status), logger.Error(err))
		return err
	}
}
