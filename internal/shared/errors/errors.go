package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies mirror errors by how callers must react to them.
type ErrorType string

const (
	// ErrorTypeAuthentication covers missing or rejected credentials for a
	// protected collection. Never retried automatically.
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"

	// ErrorTypeNotFound covers an absent collection or record.
	ErrorTypeNotFound ErrorType = "NOT_FOUND_ERROR"

	// ErrorTypeRemote covers any other non-2xx remote response.
	ErrorTypeRemote ErrorType = "REMOTE_REQUEST_ERROR"

	// ErrorTypeValidation covers records that fail the derived schema.
	// Aborts only the single entry, never the surrounding pass.
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"

	// ErrorTypeConfiguration covers programming or configuration mistakes
	// detected before any network call.
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
)

// Common sentinel errors
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrRecordNotFound     = errors.New("record not found")
	ErrNoCredentials      = errors.New("no credentials supplied")
	ErrTokenRejected      = errors.New("credentials rejected")
)

// MirrorError is the error type surfaced by the mirror core. It carries the
// taxonomy type, an optional remote status code and server message, and the
// underlying cause.
type MirrorError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *MirrorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *MirrorError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying cause
func (e *MirrorError) WithCause(cause error) *MirrorError {
	e.Cause = cause
	return e
}

// WithStatusCode attaches the remote HTTP status code
func (e *MirrorError) WithStatusCode(code int) *MirrorError {
	e.StatusCode = code
	return e
}

// WithDetail attaches a detail field
func (e *MirrorError) WithDetail(key string, value interface{}) *MirrorError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a MirrorError of the given type
func New(errorType ErrorType, message string) *MirrorError {
	return &MirrorError{Type: errorType, Message: message}
}

// NewAuthenticationError creates an authentication error. impersonated
// records whether an impersonation-style credential was presented, so the
// operator can tell "no credentials" from "credentials rejected".
func NewAuthenticationError(message string, impersonated bool) *MirrorError {
	return New(ErrorTypeAuthentication, message).WithDetail("impersonated", impersonated)
}

// NewNotFoundError creates a not found error for the named resource
func NewNotFoundError(resource string) *MirrorError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewRemoteError creates a remote request error carrying the server message
func NewRemoteError(message string) *MirrorError {
	return New(ErrorTypeRemote, message)
}

// NewValidationError creates a validation error for a single record field
func NewValidationError(message string) *MirrorError {
	return New(ErrorTypeValidation, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *MirrorError {
	return New(ErrorTypeConfiguration, message)
}

// isType reports whether err is a MirrorError of the given type
func isType(err error, t ErrorType) bool {
	var me *MirrorError
	if errors.As(err, &me) {
		return me.Type == t
	}
	return false
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return isType(err, ErrorTypeAuthentication) ||
		errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrTokenRejected)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound) ||
		errors.Is(err, ErrCollectionNotFound) || errors.Is(err, ErrRecordNotFound)
}

// IsRemote checks if an error is a generic remote request error
func IsRemote(err error) bool {
	return isType(err, ErrorTypeRemote)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return isType(err, ErrorTypeConfiguration)
}

// WrapRemote wraps an arbitrary transport error as a remote request error,
// passing already-typed mirror errors through unchanged.
func WrapRemote(err error, message string) *MirrorError {
	var me *MirrorError
	if errors.As(err, &me) {
		return me
	}
	return NewRemoteError(message).WithCause(err)
}
