package s3

import "errors"

var (
	// ErrInvalidConfig is returned when bucket or region is missing.
	ErrInvalidConfig = errors.New("s3 bucket and region are required")

	// ErrObjectNotFound is returned when a requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied is returned when credentials lack permission for an
	// operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrServiceUnavailable is returned for retryable S3 availability errors.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrOperationTimeout is returned when an operation exceeded its deadline.
	ErrOperationTimeout = errors.New("operation timed out")

	// ErrOperationCanceled is returned when an operation was canceled.
	ErrOperationCanceled = errors.New("operation canceled")
)
