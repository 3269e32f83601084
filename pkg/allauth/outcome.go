package allauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// OutcomeKind tags a decoded response.
type OutcomeKind uint8

const (
	// OutcomeRejected is a genuine failure: non-2xx without flows, or a
	// malformed body.
	OutcomeRejected OutcomeKind = iota
	// OutcomeOK is a 2xx response that does not establish a session.
	OutcomeOK
	// OutcomeAuthenticated is a 2xx response carrying an authenticated user.
	OutcomeAuthenticated
	// OutcomeFlowPending is a 401 listing flows. Whether it means "continue"
	// or "failed" is decided by the operation that issued the request.
	OutcomeFlowPending
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeFlowPending:
		return "flow_pending"
	default:
		return "rejected"
	}
}

// Outcome is the result of decoding one response, computed once per
// operation from status and body.
type Outcome struct {
	Kind     OutcomeKind
	Status   int
	Envelope Envelope
	// User is set for OutcomeAuthenticated.
	User *User
	// Err is set for OutcomeRejected and OutcomeFlowPending so an operation
	// that does not recognise the flow can return it as is.
	Err *Error
}

// Decode interprets a raw status code and body.
func Decode(status int, body []byte) Outcome {
	out := Outcome{Status: status}

	var env Envelope
	decodeErr := decodeEnvelope(body, &env)
	success := status >= http.StatusOK && status < http.StatusMultipleChoices

	switch {
	case decodeErr != nil:
		out.Kind = OutcomeRejected
		out.Err = NewError(status, nil, body)
		if success {
			out.Err.cause = errors.Join(ErrMalformedResponse, decodeErr)
			out.Err.Message = ErrMalformedResponse.Error()
		}
		return out
	case success:
		out.Envelope = env
		if user, ok := env.AuthenticatedUser(); ok {
			out.Kind = OutcomeAuthenticated
			out.User = user
			return out
		}
		if env.Meta != nil && env.Meta.IsAuthenticated {
			// authenticated without a user payload
			out.Kind = OutcomeRejected
			out.Err = NewError(status, &env, body)
			out.Err.cause = ErrMalformedResponse
			out.Err.Message = ErrMalformedResponse.Error()
			return out
		}
		out.Kind = OutcomeOK
		return out
	case status == http.StatusUnauthorized && env.Data != nil && len(env.Data.Flows) > 0:
		out.Envelope = env
		out.Kind = OutcomeFlowPending
		out.Err = NewError(status, &env, body)
		return out
	default:
		out.Envelope = env
		out.Kind = OutcomeRejected
		out.Err = NewError(status, &env, body)
		return out
	}
}

// Pending reports whether the outcome is a flow-pending 401 listing id as pending.
func (o Outcome) Pending(id FlowID) bool {
	return o.Kind == OutcomeFlowPending && o.Envelope.PendingFlow(id)
}

// decodeEnvelope accepts an empty body as an empty envelope.
func decodeEnvelope(body []byte, env *Envelope) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, env)
}
