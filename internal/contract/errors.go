package contract

import (
	"errors"
	"fmt"
)

// Error categories surfaced to callers. HTTP, CLI and MCP layers classify with errors.Is.
var (
	// ErrNotFound indicates that a department row, user or cached analysis is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a department outside the fixed set, an unknown question
	// number or a malformed submission.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates that the store or an LLM provider failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrAlreadyCompleted indicates a repeat submission by a user who already finished.
	ErrAlreadyCompleted = fmt.Errorf("%w: survey already completed", ErrInvalidInput)

	// ErrUnauthorized indicates missing or wrong credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated user without admin rights.
	ErrForbidden = errors.New("forbidden")
)

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	// Entity is the kind of thing looked up, e.g. "department".
	Entity string

	// Key identifies the missing instance.
	Key string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// InputError describes a rejected input field.
type InputError struct {
	// Field is the offending input.
	Field string

	// Reason explains the rejection.
	Reason string
}

// Error implements the error interface for InputError.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError creates an InputError.
func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// UnknownDepartmentError is returned for a name outside the fixed department set.
// It matches both ErrInvalidInput and ErrNotFound.
type UnknownDepartmentError struct {
	Name string
}

// Error implements the error interface for UnknownDepartmentError.
func (e *UnknownDepartmentError) Error() string {
	return fmt.Sprintf("unknown department %q", e.Name)
}

// Unwrap returns both categories this error belongs to.
func (e *UnknownDepartmentError) Unwrap() []error { return []error{ErrInvalidInput, ErrNotFound} }

// AccessError is a rejected credential or permission check. Message is shown to the client.
type AccessError struct {
	Kind    error
	Message string
}

// Error implements the error interface for AccessError.
func (e *AccessError) Error() string { return e.Message }

// Unwrap returns ErrUnauthorized or ErrForbidden.
func (e *AccessError) Unwrap() error { return e.Kind }

// NewUnauthorizedError creates an AccessError matching ErrUnauthorized.
func NewUnauthorizedError(msg string) *AccessError {
	return &AccessError{Kind: ErrUnauthorized, Message: msg}
}

// NewForbiddenError creates an AccessError matching ErrForbidden.
func NewForbiddenError(msg string) *AccessError {
	return &AccessError{Kind: ErrForbidden, Message: msg}
}

// UpstreamError wraps a failure of the store or an LLM provider.
type UpstreamError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for UpstreamError.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns both ErrUpstream and the underlying error.
func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// NewUpstreamError wraps err unless it is nil or already classified.
func NewUpstreamError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &UpstreamError{Op: op, Err: err}
}
