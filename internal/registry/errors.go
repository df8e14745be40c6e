package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the server has no record for the requested resource.
var ErrNotFound = errors.New("not found")

// ErrNoEvent indicates the enroll endpoint had no pending job to hand out.
var ErrNoEvent = errors.New("no pending event")

// FetchError is a transport or server-side failure. Retryable failures are
// retried with backoff before one of these escapes.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
