package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form PB-<AREA>-<NNNN>; the trailing four digits carry the
// HTTP status class the transport layer maps the error to.
type DomainError struct {
	Code    string // Error code (e.g., "PB-BUDG-4040")
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

// IsRetryable reports whether the whole operation may be retried safely.
// Only durable layer failures qualify; everything else needs corrected input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageError)
}

// ============================================================================
// Budget Errors (BUDG)
// ============================================================================

var (
	// ErrBudgetNotFound indicates no live snapshot has the requested id.
	ErrBudgetNotFound = NewDomainError("PB-BUDG-4040", "budget not found")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrMalformedInput indicates the request body is not valid JSON.
	ErrMalformedInput = NewDomainError("PB-ARG-4000", "malformed input")

	// ErrValidation indicates required fields are absent or wrong-typed.
	ErrValidation = NewDomainError("PB-ARG-4220", "validation failed")

	// ErrPayloadTooLarge indicates the request body exceeded the configured limit.
	ErrPayloadTooLarge = NewDomainError("PB-ARG-4130", "payload too large")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("PB-SYS-5000", "internal server error")

	// ErrStorageError indicates the durable layer failed; the call had no effect
	// and may be retried.
	ErrStorageError = NewDomainError("PB-SYS-5030", "storage unavailable")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("PB-SYS-4290", "too many requests")
)
