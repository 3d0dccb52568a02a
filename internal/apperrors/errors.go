// internal/apperrors/errors.go
package apperrors

import "fmt"

// ValidationError reports bad caller input. Field names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError reports a missing or invalid credential.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NotFoundError reports an unknown key, token, license, or user.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// StateError reports an operation not permitted in the current status, such as
// minting a token against a revoked license.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func NewStateError(message string) *StateError {
	return &StateError{Message: message}
}

// InfrastructureError wraps store or network failures. Callers must be able to
// tell "your license is invalid" apart from "we could not check right now", so
// these are never converted into logical rejections.
type InfrastructureError struct {
	Op    string
	Cause error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Cause
}

func NewInfrastructureError(op string, cause error) *InfrastructureError {
	return &InfrastructureError{Op: op, Cause: cause}
}
