package notion

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("notion: missing credentials")
	ErrInvalidResponse    = errors.New("notion: invalid response")
	ErrResponseTooLarge   = errors.New("notion: response too large")
)

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Notion API returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError is a failure below HTTP: dialing, TLS, timeouts and caller
// cancellation. Unwrap exposes context.Canceled for the last case.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("notion: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
