package publish

import (
	"errors"
	"fmt"
)

// Common publishing errors
var (
	// ErrEncodeFailed is returned when the image cannot be encoded as JPEG.
	ErrEncodeFailed = errors.New("failed to encode image")

	// ErrUploadFailed is returned when the hosted store rejects the upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrMissingCredentials is returned when the store's credentials are not configured.
	ErrMissingCredentials = errors.New("missing image store credentials")
)

// PublishError wraps errors with additional context about the publishing failure.
type PublishError struct {
	// Op is the operation that failed (e.g., "Publish", "Upload").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("publish: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("publish: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PublishError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var publishErr *PublishError
	if errors.As(err, &publishErr) {
		return err
	}
	return &PublishError{Op: op, Err: err, Details: details}
}
