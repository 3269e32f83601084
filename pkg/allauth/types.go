package allauth

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a user identifier. The backend may send it as a JSON number or string;
// both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("allauth: user id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the identity record returned by the backend. Clients never mutate
// it; every session-establishing response replaces it wholesale.
type User struct {
	ID                ID     `json:"id"`
	Display           string `json:"display"`
	Email             string `json:"email"`
	HasUsablePassword bool   `json:"has_usable_password"`
	Username          string `json:"username,omitempty"`
}

// FlowID names a server-declared authentication step.
type FlowID string

const (
	FlowLogin             FlowID = "login"
	FlowSignup            FlowID = "signup"
	FlowVerifyEmail       FlowID = "verify_email"
	FlowVerifyPhone       FlowID = "verify_phone"
	FlowLoginByCode       FlowID = "login_by_code"
	FlowMFAAuthenticate   FlowID = "mfa_authenticate"
	FlowMFAReauthenticate FlowID = "mfa_reauthenticate"
	FlowProviderRedirect  FlowID = "provider_redirect"
	FlowProviderSignup    FlowID = "provider_signup"
	FlowProviderToken     FlowID = "provider_token"
	FlowReauthenticate    FlowID = "reauthenticate"
)

// Flow describes an in-progress authentication step carried inside a single
// response. Provider is kept opaque.
type Flow struct {
	ID        FlowID          `json:"id"`
	IsPending bool            `json:"is_pending,omitempty"`
	Provider  json.RawMessage `json:"provider,omitempty"`
}

// Method is an authentication method recorded for the current session.
type Method struct {
	Method string `json:"method"`
	At     int64  `json:"at"`
	Email  string `json:"email,omitempty"`
}

// Meta carries authentication metadata.
type Meta struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	SessionToken    string `json:"session_token,omitempty"`
	AccessToken     string `json:"access_token,omitempty"`
}

// Data is the union of the data shapes seen in session and flow responses.
type Data struct {
	User    *User    `json:"user,omitempty"`
	Methods []Method `json:"methods,omitempty"`
	Flows   []Flow   `json:"flows,omitempty"`
}

// FieldError is one entry of a 400 error envelope.
type FieldError struct {
	Code    string `json:"code"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Envelope is the common response wrapper of the browser API.
type Envelope struct {
	Status int          `json:"status"`
	Data   *Data        `json:"data,omitempty"`
	Meta   *Meta        `json:"meta,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// PendingFlow reports whether the envelope lists id as a pending flow.
func (e Envelope) PendingFlow(id FlowID) bool {
	if e.Data == nil {
		return false
	}
	for _, f := range e.Data.Flows {
		if f.ID == id && f.IsPending {
			return true
		}
	}
	return false
}

// AuthenticatedUser returns the user when the envelope reports an authenticated
// session with a user payload.
func (e Envelope) AuthenticatedUser() (*User, bool) {
	if e.Meta == nil || !e.Meta.IsAuthenticated || e.Data == nil || e.Data.User == nil {
		return nil, false
	}
	return e.Data.User, true
}
