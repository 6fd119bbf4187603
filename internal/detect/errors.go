package detect

import (
	"errors"
	"fmt"
)

// Common detection errors
var (
	// ErrModelLoad is returned when the model or the runtime cannot be initialized.
	ErrModelLoad = errors.New("failed to load detection model")

	// ErrUnsupportedModel is returned when the model's inputs or outputs do not
	// have the expected YOLO layout.
	ErrUnsupportedModel = errors.New("unsupported detection model layout")

	// ErrInferenceFailed is returned when running the model fails.
	ErrInferenceFailed = errors.New("inference failed")

	// ErrServiceUnavailable is returned when the remote inference service is unhealthy.
	ErrServiceUnavailable = errors.New("inference service unavailable")
)

// DetectError wraps errors with additional context about the detection failure.
type DetectError struct {
	// Op is the operation that failed (e.g., "NewONNXDetector", "Detect").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *DetectError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("detect: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("detect: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *DetectError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var detectErr *DetectError
	if errors.As(err, &detectErr) {
		return err
	}
	return &DetectError{Op: op, Err: err, Details: details}
}
