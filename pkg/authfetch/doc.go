// Package authfetch is the request authenticator of the auth client.
//
// Every request sent through a Client carries
//
//   - Content-Type: application/json
//   - X-CSRFToken: the current CSRF cookie value, or an empty string
//   - the session cookie: through the HTTP client's jar in browser-like
//     contexts, or as a Cookie header rebuilt from the inbound request in
//     server-rendering contexts
//
// Cookies the backend sets are handed back to the execution context, so a
// rotated CSRF token is visible to the next request of the same operation.
//
// A 401 from an endpoint outside the flow prefix (default "/_allauth/") runs
// the UnauthorizedHook, which the lifecycle wires to a local session clear.
// 401 responses from flow endpoints are returned untouched because they may
// describe a pending step. Transport errors are returned as the http.Client
// produced them.
package authfetch
