package flow

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authflow/pkg/allauth"
	"github.com/dmitrymomot/authflow/pkg/logger"
	"github.com/dmitrymomot/authflow/pkg/sessionstate"
)

// VerifyResult is the resolution of a successful email verification.
type VerifyResult struct {
	// Authenticated is true when the verification also logged the user in.
	Authenticated bool
}

// VerifyEmail confirms an email address with the key from the verification
// link. When the backend reports an authenticated session, the state is set
// from the response directly.
func (e *Engine) VerifyEmail(ctx context.Context, key string) (VerifyResult, error) {
	ctx, op, log := e.begin(ctx, "verify_email")
	defer op.End()
	return e.verify(ctx, op, log, key)
}

// VerifyEmailByCode confirms an email address with a one-time code. The
// backend resolves the address from the pending verification; email is only
// used for diagnostics.
func (e *Engine) VerifyEmailByCode(ctx context.Context, email, code string) (VerifyResult, error) {
	ctx, op, log := e.begin(ctx, "verify_email_by_code")
	defer op.End()
	log.DebugContext(ctx, "verifying email by code", "email", email)
	return e.verify(ctx, op, log, code)
}

func (e *Engine) verify(ctx context.Context, op *sessionstate.Op, log *slog.Logger, key string) (VerifyResult, error) {
	out, err := e.call(ctx, http.MethodPost, allauth.PathEmailVerify, allauth.VerifyEmailRequest{Key: key})
	if err != nil {
		log.WarnContext(ctx, "email verification request failed", logger.Error(err))
		return VerifyResult{}, err
	}

	switch {
	case out.Kind == allauth.OutcomeAuthenticated:
		op.SetSession(out.User, true)
		log.InfoContext(ctx, "email verified, session authenticated", logger.UserID(out.User.ID.String()))
		return VerifyResult{Authenticated: true}, nil
	case out.Kind == allauth.OutcomeOK:
		log.InfoContext(ctx, "email verified")
		return VerifyResult{}, nil
	case out.Kind == allauth.OutcomeFlowPending && !out.Pending(allauth.FlowVerifyEmail):
		// verified; another step such as login is still pending
		log.InfoContext(ctx, "email verified, next step pending", flowAttrs(out)...)
		return VerifyResult{}, nil
	default:
		err := failure(out)
		log.InfoContext(ctx, "email verification rejected", logger.Status(out.Status), logger.Error(err))
		return VerifyResult{}, err
	}
}

// RequestEmailVerification asks the backend to resend the verification
// message. The session state is not mutated.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) error {
	ctx, op, log := e.begin(ctx, "request_email_verification")
	defer op.End()

	out, err := e.call(ctx, http.MethodPost, allauth.PathEmailVerifyResend, allauth.CodeRequest{Email: email})
	if err != nil {
		log.WarnContext(ctx, "verification resend failed", logger.Error(err))
		return err
	}
	if !succeeded(out) {
		err := failure(out)
		log.InfoContext(ctx, "verification resend rejected", logger.Status(out.Status), logger.Error(err))
		return err
	}
	return nil
}

// RequestLoginCode asks the backend to send a login code. A 401 with a
// pending login_by_code flow is the expected answer and resolves without
// error. The session state is not mutated.
func (e *Engine) RequestLoginCode(ctx context.Context, email string) error {
	ctx, op, log := e.begin(ctx, "request_login_code")
	defer op.End()

	out, err := e.call(ctx, http.MethodPost, allauth.PathCodeRequest, allauth.CodeRequest{Email: email})
	if err != nil {
		log.WarnContext(ctx, "login code request failed", logger.Error(err))
		return err
	}
	if succeeded(out) || out.Pending(allauth.FlowLoginByCode) {
		log.InfoContext(ctx, "login code sent")
		return nil
	}
	err = failure(out)
	log.InfoContext(ctx, "login code request rejected",
		append(flowAttrs(out), logger.Status(out.Status), logger.Error(err))...)
	return err
}

// LoginWithCode confirms a login code. An authenticated response sets the
// logged-in state directly.
func (e *Engine) LoginWithCode(ctx context.Context, code string) error {
	ctx, op, log := e.begin(ctx, "login_with_code")
	defer op.End()

	out, err := e.call(ctx, http.MethodPost, allauth.PathCodeConfirm, allauth.CodeConfirmRequest{Code: code})
	if err != nil {
		log.WarnContext(ctx, "login code confirmation failed", logger.Error(err))
		return err
	}
	switch out.Kind {
	case allauth.OutcomeAuthenticated:
		op.SetSession(out.User, true)
		log.InfoContext(ctx, "logged in with code", logger.UserID(out.User.ID.String()))
		return nil
	case allauth.OutcomeOK:
		return nil
	default:
		err := failure(out)
		log.InfoContext(ctx, "login code rejected",
			append(flowAttrs(out), logger.Status(out.Status), logger.Error(err))...)
		return err
	}
}
