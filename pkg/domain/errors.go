package domain

import (
	"errors"
	"fmt"
)

// ErrUnhandledKind is returned when a block kind has no entry in the nesting table.
var ErrUnhandledKind = errors.New("unhandled block kind")

// ErrChildrenForbidden is returned when a block whose kind forbids children carries some.
var ErrChildrenForbidden = errors.New("kind does not accept children")

// ErrInvalidChildKind is returned when a typed container receives a child of the wrong kind.
var ErrInvalidChildKind = errors.New("invalid child kind")

// ErrPathNotFound is returned when a plan path indexes past the known children of a node.
var ErrPathNotFound = errors.New("path not found")

// ErrLimitExceeded is returned when a payload exceeds the remote write limits.
var ErrLimitExceeded = errors.New("call limit exceeded")

// ErrorCode classifies remote failures. Codes are strings for debuggability and
// natural JSON serialization.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeRateLimit    ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	CodeUnknown      ErrorCode = "UNKNOWN"
)

// Transient reports whether a failure with this code may succeed when retried.
func (c ErrorCode) Transient() bool {
	switch c {
	case CodeRateLimit, CodeConflict, CodeTimeout, CodeInternal, CodeUnavailable:
		return true
	}
	return false
}

// RemoteError is a failure reported by the remote content store.
type RemoteError struct {
	Op      string // "append" or "list"
	Code    ErrorCode
	Status  int // transport status, 0 when not applicable
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// CodeOf extracts the ErrorCode of a RemoteError anywhere in the chain.
func CodeOf(err error) ErrorCode {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// StructuralError reports a block tree that violates a kind's child rule.
// Structural errors are never retried.
type StructuralError struct {
	Path   Path
	Kind   Kind
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %s (%s): %s: %v", e.Path, e.Kind, e.Reason, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// ErrorPolicy decides what happens to a structural error found while planning.
// Returning a non-nil error aborts planning; returning nil drops the offending
// children and continues.
type ErrorPolicy func(err error) error

// FailFast is the default ErrorPolicy: every structural error aborts planning.
func FailFast(err error) error { return err }
