package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session for the given id or name does
	// not exist in the underlying store. Callers can rely on errors.Is to
	// distinguish a missing session from an empty one.
	ErrNotFound = errors.New("session not found")
)

// IsNotFound reports whether err indicates a missing session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationError reports malformed input (bad branch name, duplicate name
// on strict create, invalid message record). It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps an I/O failure on snapshot read/write. The failed
// operation and subject are preserved so caller-facing messages can name
// what was attempted; the cause is reachable via errors.Unwrap.
type StorageError struct {
	Op  string // "save", "load", "scan"
	Key string // session id or name
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// EndpointErrorKind classifies a failed inference call. The retry layer
// bases its decision purely on this kind, independent of any provider's
// error hierarchy.
type EndpointErrorKind int

const (
	// EndpointFatal marks errors that must never be retried
	// (authentication, malformed request, unknown model).
	EndpointFatal EndpointErrorKind = iota
	// EndpointTransient marks retryable failures: rate limiting and
	// server overload.
	EndpointTransient
)

// String returns the string representation of the error kind.
func (k EndpointErrorKind) String() string {
	if k == EndpointTransient {
		return "transient"
	}
	return "fatal"
}

// EndpointError wraps an error returned by an inference endpoint together
// with its retry classification.
type EndpointError struct {
	Kind EndpointErrorKind
	Err  error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint (%s): %v", e.Kind, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }

// TransientError wraps err as a retryable endpoint failure.
func TransientError(err error) *EndpointError {
	return &EndpointError{Kind: EndpointTransient, Err: err}
}

// FatalError wraps err as a non-retryable endpoint failure.
func FatalError(err error) *EndpointError {
	return &EndpointError{Kind: EndpointFatal, Err: err}
}

// IsTransient reports whether err is classified as retryable. Unclassified
// errors are treated as fatal: everything that is not explicitly marked
// transient is raised immediately.
func IsTransient(err error) bool {
	var ee *EndpointError
	if errors.As(err, &ee) {
		return ee.Kind == EndpointTransient
	}
	return false
}
