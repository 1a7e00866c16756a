// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	// Session errors. ErrUnauthenticated is the one error the dispatch
	// layer deliberately lets escape to the caller: there is no safe empty
	// default for a user-initiated action on a dead session, and the UI
	// must surface "please reconnect".
	ErrUnauthenticated = errors.New("account session missing or expired")

	// ErrUnsupportedFeature marks a service/feature combination with no
	// adapter. It exists for logging and diagnostics only; dispatch
	// resolves it to an empty canonical result instead of returning it.
	ErrUnsupportedFeature = errors.New("feature not supported by this service")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "grades", "account", "pronote"
	Op      string // Operation that failed, e.g., "Fetch", "Map"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Account domain errors
var (
	ErrAccountNotFound   = NewDomainError("account", "Find", ErrNotFound, "account not found")
	ErrAccountExists     = NewDomainError("account", "Create", ErrAlreadyExists, "account already exists")
	ErrUnknownService    = NewDomainError("account", "Validate", ErrInvalidInput, "unknown service tag")
	ErrNestedVirtual     = NewDomainError("account", "ResolveBinding", ErrInvalidInput, "virtual account bound to another virtual account")
	ErrCredentialsSealed = NewDomainError("account", "Open", ErrValidation, "credentials cannot be unsealed")
)

// Backend errors
var (
	ErrBackendUnavailable     = NewDomainError("backend", "Request", ErrServiceUnavailable, "backend is unavailable")
	ErrBackendRateLimited     = NewDomainError("backend", "Request", ErrRateLimited, "backend rate limit exceeded")
	ErrBackendTimeout         = NewDomainError("backend", "Request", ErrTimeout, "backend request timeout")
	ErrBackendInvalidResponse = NewDomainError("backend", "Parse", ErrInvalidFormat, "invalid response from backend")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthenticated checks if the error is a missing-session error.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
