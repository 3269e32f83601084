package credential

import "errors"

// ErrNoBaseURL is returned when a jar context is created without the backend URL.
var ErrNoBaseURL = errors.New("credential.no_base_url")
