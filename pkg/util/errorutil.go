package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the service.
const (
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeDataIntegrity   = "DATA_INTEGRITY"
	CodeCacheMiss       = "CACHE_MISS"
	CodeValidation      = "VALIDATION_FAILED"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewUpstreamError wraps a failed ticket-store round trip. The operation and
// upstream status ride along so report failures name the filter that broke.
func NewUpstreamError(operation string, status int, err error) error {
	return &DomainError{
		Code:       CodeUpstreamFailure,
		Message:    fmt.Sprintf("upstream request failed: %s", operation),
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"operation":       operation,
			"upstream_status": status,
		},
		Err: err,
	}
}

// NewDataIntegrityError flags a malformed upstream record. These fail fast:
// silently coercing a bad timestamp would corrupt ordering decisions.
func NewDataIntegrityError(message string, details map[string]any, err error) error {
	return &DomainError{
		Code:       CodeDataIntegrity,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Details:    details,
		Err:        err,
	}
}

// NewCacheMiss signals that no report has ever been stored under the key.
// Callers treat this as "no data yet", not a crash.
func NewCacheMiss(key string) error {
	return &DomainError{
		Code:       CodeCacheMiss,
		Message:    "no report cached yet",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"key": key},
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given DomainError code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
