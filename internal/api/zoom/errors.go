package zoom

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth marks a failed access token exchange.
	ErrAuth = errors.New("zoom authentication failed")
	// ErrProvider marks a failed room or device request.
	ErrProvider = errors.New("zoom request failed")
)

// StatusError describes a non-success HTTP answer from the API.
type StatusError struct {
	// Op is the failed operation, e.g. "list rooms".
	Op string
	// StatusCode is the HTTP status returned.
	StatusCode int
	// Body is the beginning of the response body.
	Body string
	// kind is ErrAuth or ErrProvider.
	kind error
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrAuth or ErrProvider.
func (e *StatusError) Unwrap() error {
	return e.kind
}
