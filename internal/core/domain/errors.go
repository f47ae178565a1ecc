// Package domain defines the core domain models for varmesh.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "VM-STOR-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Store Errors (STOR)
// ============================================================================

var (
	// ErrKeyNotFound indicates the requested name has no access entry.
	ErrKeyNotFound = NewDomainError("VM-STOR-4040", "key not found")

	// ErrPermissionDenied indicates the entry lacks the requested capability.
	ErrPermissionDenied = NewDomainError("VM-STOR-4030", "permission denied")

	// ErrDecode indicates a stored or incoming value did not match the
	// expected shape.
	ErrDecode = NewDomainError("VM-STOR-4001", "decode failed")

	// ErrAlreadyRegistered indicates a name collision on a live variable
	// or subtree.
	ErrAlreadyRegistered = NewDomainError("VM-STOR-4090", "already registered")

	// ErrFileLoad indicates the snapshot could not be loaded at startup.
	ErrFileLoad = NewDomainError("VM-STOR-5001", "snapshot load failed")
)

// ============================================================================
// Dispatch Errors (DISP)
// ============================================================================

var (
	// ErrUnknownMethod indicates a request with an unrecognized method.
	ErrUnknownMethod = NewDomainError("VM-DISP-4000", "unknown method")

	// ErrBadRequest indicates a malformed request body.
	ErrBadRequest = NewDomainError("VM-DISP-4001", "bad request")
)
