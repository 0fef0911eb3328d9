package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	// ErrNotFound signals a missing entry or namespace where absence is
	// an error (reads by ID). Namespace misses during search are NOT
	// errors and never produce this.
	ErrNotFound = errors.New("not found")

	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")
)

// ValidationError reports caller input that was rejected before any
// storage or upstream work happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError wraps a failure from an external dependency such as an
// embedding provider. Callers can unwrap to inspect the cause.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError wraps err as a failure of the named service.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}
