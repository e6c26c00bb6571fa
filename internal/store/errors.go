package store

import (
	"errors"
	"fmt"

	"netsync/internal/domain"
)

// Sentinel errors returned by store operations
var (
	ErrNotFound      = errors.New("node not found")
	ErrDuplicate     = errors.New("node already exists")
	ErrMissingParent = errors.New("parent node not found")
)

// StoreError carries the operation and node identity of a failed call
type StoreError struct {
	Op    string // operation that failed, e.g. "lookup", "insert child"
	Ref   domain.Ref
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ValidationError reports the first field constraint a node violated
type ValidationError struct {
	Ref     domain.Ref
	Field   string
	Tag     string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying validator error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
