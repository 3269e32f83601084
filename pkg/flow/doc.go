// Package flow implements the auth flow engine: login, signup, logout,
// session refresh, email verification and login by code against the
// django-allauth headless browser API.
//
// Every operation marks the session state as loading for its whole duration
// and mutates it only after its response has been decoded. A 401 means
// different things to different operations: signup treats a pending
// verify_email flow as success, requestLoginCode treats a pending
// login_by_code flow as success, logout swallows every 401. Each operation
// applies its own rule to the decoded allauth.Outcome.
//
// Failures are returned as *allauth.Error (errors.As) carrying a normalized
// Message, the original status, the field errors and the flows of the
// response. Transport errors are returned as the HTTP client produced them.
package flow
