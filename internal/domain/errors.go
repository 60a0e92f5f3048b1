package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrConcurrentUpdate = errors.New("resource was modified concurrently")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Validation constants
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 500
)

// ResourceError reports a lookup or ownership failure on a named resource.
// Kind is either ErrNotFound or ErrForbidden.
type ResourceError struct {
	Resource string
	Kind     error
}

func (e *ResourceError) Error() string {
	if errors.Is(e.Kind, ErrForbidden) {
		return fmt.Sprintf("%s belongs to another owner", e.Resource)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *ResourceError) Unwrap() error {
	return e.Kind
}

// NotFound returns a not-found error for the given resource name
func NotFound(resource string) *ResourceError {
	return &ResourceError{Resource: resource, Kind: ErrNotFound}
}

// FieldError is a validation failure tied to a single input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// StateError reports an operation that is not legal in the entity's current state
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// kindError is a plain message error classified under one of the base kinds
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

// StorageError wraps a failure of the persistence layer. It is opaque to callers
// and is never retried by services.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a domain error
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the expected, typed outcomes
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrConcurrentUpdate)
}
