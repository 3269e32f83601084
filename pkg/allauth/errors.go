package allauth

import (
	"errors"
	"net/http"
)

var (
	// ErrMalformedResponse indicates a body that is not a valid envelope or
	// lacks the fields an operation depends on.
	ErrMalformedResponse = errors.New("allauth.malformed_response")
	// ErrFlowPending marks an Error whose payload lists at least one pending flow.
	ErrFlowPending = errors.New("allauth.flow_pending")
)

// DefaultErrorMessage is used when neither the payload nor the status code
// yields a human-readable message.
const DefaultErrorMessage = "authentication request failed"

// Error is the normalized shape of every backend failure. Message is always
// set; Status, Errors, Flows and Body preserve the original response for
// callers that want field-level detail.
type Error struct {
	Status  int
	Message string
	Errors  []FieldError
	Flows   []Flow
	Body    []byte
	cause   error
}

// NewError normalizes a failed response. env may be nil when the body could
// not be decoded.
func NewError(status int, env *Envelope, body []byte) *Error {
	e := &Error{Status: status, Body: body}
	if env != nil {
		e.Errors = env.Errors
		if env.Data != nil {
			e.Flows = env.Data.Flows
		}
	}
	e.Message = normalizeMessage(status, e.Errors)
	return e
}

func normalizeMessage(status int, errs []FieldError) string {
	for _, fe := range errs {
		if fe.Message != "" {
			return fe.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return DefaultErrorMessage
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes ErrMalformedResponse or ErrFlowPending where they apply.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	if len(e.PendingFlows()) > 0 {
		errs = append(errs, ErrFlowPending)
	}
	return errs
}

// FieldErrors maps request parameters to their error message. Errors without
// a param are skipped.
func (e *Error) FieldErrors() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Param != "" {
			fields[fe.Param] = fe.Message
		}
	}
	return fields
}

// FirstError returns the first entry of the error list, if any.
func (e *Error) FirstError() (FieldError, bool) {
	if len(e.Errors) == 0 {
		return FieldError{}, false
	}
	return e.Errors[0], true
}

// PendingFlows returns the flows marked as pending in the failed response.
func (e *Error) PendingFlows() []Flow {
	var pending []Flow
	for _, f := range e.Flows {
		if f.IsPending {
			pending = append(pending, f)
		}
	}
	return pending
}

// StatusCode returns the HTTP status of a normalized error, or 0 when err is
// not (and does not wrap) an *Error.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
