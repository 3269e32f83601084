package authfetch

import "errors"

var (
	ErrNoExecutionContext = errors.New("authfetch.no_execution_context")
	ErrInvalidBaseURL     = errors.New("authfetch.invalid_base_url")
	ErrProbeFailed        = errors.New("authfetch.probe_failed")
	ErrResponseTooLarge   = errors.New("authfetch.response_too_large")
)
