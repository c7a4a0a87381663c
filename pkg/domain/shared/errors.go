// Package shared provides shared domain types and utilities.
package shared

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrValidation    = errors.New("validation error")
	ErrInternal      = errors.New("internal error")

	// ErrTransient marks a transport or upstream failure that is safe to
	// retry on the next reconciliation pass without any state change.
	ErrTransient = errors.New("transient upstream error")

	// ErrConfiguration marks a missing external handle (engagement, report id).
	// The affected scan is skipped; the pass continues and an operator has to
	// fix the configuration before the scan can be processed.
	ErrConfiguration = errors.New("configuration error")

	// ErrDuplicateEvidence is returned by the case platform when an observable
	// already exists on a case. Callers treat it as success.
	ErrDuplicateEvidence = errors.New("duplicate observable")
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an already exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConfiguration checks if the error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsTransient checks if the error is a transient upstream error.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
