package shared

import (
	"errors"
	"fmt"
)

// Domain error codes. The HTTP layer maps these onto response statuses.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeAlreadyExist = "ALREADY_EXISTS"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInvalidState = "INVALID_STATE"
	CodeUploadFailed = "UPLOAD_FAILED"
	CodeStorage      = "STORAGE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || e.Message == t.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NewValidationError reports malformed or missing input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing entity by name
func NewNotFoundError(entity string) *DomainError {
	return NewDomainError(CodeNotFound, entity+" not found")
}

// NewForbiddenError reports a policy violation
func NewForbiddenError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

// NewInvalidStateError reports an illegal state transition
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewUploadError reports a blob store failure while storing a file
func NewUploadError(cause error) *DomainError {
	return WrapDomainError(CodeUploadFailed, "failed to upload file", cause)
}

// NewStorageError reports a blob store failure while reading or deleting
func NewStorageError(message string, cause error) *DomainError {
	return WrapDomainError(CodeStorage, message, cause)
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError(CodeNotFound, "")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExist, "")
	ErrUnauthorized  = NewDomainError(CodeUnauthorized, "")
	ErrForbidden     = NewDomainError(CodeForbidden, "")
	ErrInvalidState  = NewDomainError(CodeInvalidState, "")
	ErrValidation    = NewDomainError(CodeValidation, "")
)

// HasCode reports whether err is a DomainError carrying the given code
func HasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}
