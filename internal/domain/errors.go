// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation        ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                           // Resource not found errors (404 Not Found)
	ErrorTypePermissionDenied                   // Actor lacks the required grant (403 Forbidden)
	ErrorTypeInvalidTransition                  // State machine rule violated (409 Conflict)
	ErrorTypeConflictBlocking                   // Critical scheduling conflict blocks a transition (409 Conflict)
	ErrorTypeConflict                           // Optimistic concurrency failure (409 Conflict)
	ErrorTypeExternalProvider                   // External calendar provider failure (502 Bad Gateway)
	ErrorTypeInternal                           // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                        // Service unavailable errors (503 Service Unavailable)
)

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewPermissionDeniedError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypePermissionDenied, Message: message, Err: errors.Join(err...)}
}

func NewInvalidTransitionError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInvalidTransition, Message: message, Err: errors.Join(err...)}
}

func NewConflictBlockingError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflictBlocking, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewExternalProviderError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeExternalProvider, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

// Sentinel errors for well-known failure conditions. Services wrap these in a
// DomainError so callers can match on either the sentinel or the type.
var (
	ErrInvalidOwnershipKind       = errors.New("calendar owner reference does not match the calendar type level")
	ErrCalendarHasFutureEvents    = errors.New("calendar still has published events in the future")
	ErrInsufficientPrivilege      = errors.New("granting actor does not hold admin on the calendar")
	ErrOutOfOrderApproval         = errors.New("final approval requires a completed first approval")
	ErrUnresolvedCriticalConflict = errors.New("unresolved critical conflict blocks this approval")
	ErrAlreadyCancelled           = errors.New("event is already cancelled")
	ErrConcurrentModification     = errors.New("event was modified concurrently, refetch and retry")
	ErrServiceUnavailable         = errors.New("service is not available")
)
