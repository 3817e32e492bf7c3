package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error classes this service distinguishes.
// Classification happens once, where the upstream response is parsed;
// downstream logic uses errors.Is() and never re-parses message strings.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrRemoteValidation = errors.New("platform rejected request")
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("already exists")
	ErrTransport        = errors.New("transport failure")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"` // Platform error payload for diagnosability
	StatusCode int    `json:"-"`                 // HTTP status, not serialized
	Err        error  `json:"-"`                 // Wrapped error class, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 error for invalid caller input.
// Validation failures never reach the remote platform.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewRemoteValidationError creates an error for requests the platform
// rejected. Surfaced as 500 since the storefront caller cannot fix it.
func NewRemoteValidationError(message string, details any) *APIError {
	return &APIError{
		Code:       "REMOTE_VALIDATION_ERROR",
		Message:    message,
		Details:    details,
		StatusCode: 500,
		Err:        ErrRemoteValidation,
	}
}

// NewNotFoundError creates a 404-class error for missing remote resources.
// The message carries the platform's own wording where available.
func NewNotFoundError(message string, details any) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    message,
		Details:    details,
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewDuplicateError creates an error for duplicate-class platform rejections.
// Variant creation recovers from this class by looking up the existing record.
func NewDuplicateError(message string, details any) *APIError {
	return &APIError{
		Code:       "DUPLICATE",
		Message:    message,
		Details:    details,
		StatusCode: 409,
		Err:        ErrDuplicate,
	}
}

// NewTransportError creates a 502 error for network failures, empty
// response bodies, and malformed JSON from the platform.
func NewTransportError(err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_TRANSPORT_ERROR",
		Message:    "platform request failed",
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrTransport, err),
	}
}

// NewUnauthorizedError creates a 401 error for platform auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewRateLimitError creates a 429 error for platform rate limiting.
func NewRateLimitError() *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    "platform rate limit exceeded, please retry later",
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
