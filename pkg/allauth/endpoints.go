package allauth

// Browser API endpoint paths, relative to the configured base URL.
const (
	PathPrefix            = "/_allauth/browser/v1"
	PathLogin             = PathPrefix + "/auth/login"
	PathSignup            = PathPrefix + "/auth/signup"
	PathSession           = PathPrefix + "/auth/session"
	PathEmailVerify       = PathPrefix + "/auth/email/verify"
	PathEmailVerifyResend = PathPrefix + "/auth/email/verify/resend"
	PathCodeRequest       = PathPrefix + "/auth/code/request"
	PathCodeConfirm       = PathPrefix + "/auth/code/confirm"
)

// Request bodies.
type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SignupRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	VerifyEmailRequest struct {
		Key string `json:"key"`
	}

	CodeRequest struct {
		Email string `json:"email"`
	}

	CodeConfirmRequest struct {
		Code string `json:"code"`
	}
)
