package fetch

import (
	"errors"
	"fmt"
)

// Download errors. All of them are caused by the requested URL and map to
// a client error at the HTTP boundary.
var (
	// ErrInvalidURL is returned when the URL is empty, unparsable or not http(s).
	ErrInvalidURL = errors.New("invalid image URL")

	// ErrUnreachable is returned when the remote host cannot be reached.
	ErrUnreachable = errors.New("unable to reach image URL")

	// ErrUnexpectedStatus is returned when the remote answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unable to fetch image from URL")

	// ErrTooLarge is returned when the body exceeds the configured limit.
	ErrTooLarge = errors.New("image exceeds the maximum download size")
)

// FetchError wraps errors with additional context about the download failure.
type FetchError struct {
	// Op is the operation that failed (e.g., "Fetch").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("fetch: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("fetch: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the requested URL rather
// than by this service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrUnreachable) ||
		errors.Is(err, ErrUnexpectedStatus) ||
		errors.Is(err, ErrTooLarge)
}
