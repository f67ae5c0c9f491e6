package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code, so
// errors.Is(err, ErrUnknownField) matches any error carrying that code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// WithMessage copies the code of domainErr with a caller-facing message.
func WithMessage(domainErr *DomainError, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error codes
const (
	CodeUnknownField     = "UNKNOWN_FIELD"
	CodeBadTimestamp     = "BAD_TIMESTAMP"
	CodeBadEnum          = "BAD_ENUM"
	CodeInvalidPage      = "INVALID_PAGE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeStoreConflict    = "STORE_CONFLICT"
	CodeInvalidReference = "INVALID_REFERENCE"
	CodeQueryFailed      = "QUERY_FAILED"
	CodeNotFound         = "RESOURCE_NOT_FOUND"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"

	CodeMalformedToken   = "MALFORMED_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeSignatureInvalid = "SIGNATURE_INVALID"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidCreds     = "INVALID_CREDENTIALS"

	CodeForbidden   = "FORBIDDEN"
	CodeUnconfirmed = "UNCONFIRMED"

	CodeEmailExists    = "EMAIL_EXISTS"
	CodeUsernameExists = "USERNAME_EXISTS"
	CodeUnknownEmail   = "UNKNOWN_EMAIL"
	CodeWrongPassword  = "WRONG_PASSWORD"
	CodeInvalidToken   = "INVALID_TOKEN"

	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Predefined domain errors
var (
	// Filter compilation errors
	ErrUnknownField = NewDomainError(CodeUnknownField, "Parameter error.")
	ErrBadTimestamp = NewDomainError(CodeBadTimestamp, "utc timestamp out of range.")
	ErrBadEnum      = NewDomainError(CodeBadEnum, "value is not one of the allowed values")
	ErrInvalidPage  = NewDomainError(CodeInvalidPage, "page must be a positive integer")

	// Store errors
	ErrInvalidInput     = NewDomainError(CodeInvalidInput, "invalid input")
	ErrStoreConflict    = NewDomainError(CodeStoreConflict, "Duplicate value for a unique field.")
	ErrInvalidReference = NewDomainError(CodeInvalidReference, "Resource not found, please check your url or parameter.")
	ErrQueryFailed      = NewDomainError(CodeQueryFailed, "Resource not found, please check your url or parameter.")
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found.")
	ErrStoreUnavailable = NewDomainError(CodeStoreUnavailable, "Storage backend unavailable, try again later.")

	// Token errors
	ErrMalformedToken   = NewDomainError(CodeMalformedToken, "malformed token")
	ErrTokenExpired     = NewDomainError(CodeTokenExpired, "token has expired")
	ErrSignatureInvalid = NewDomainError(CodeSignatureInvalid, "token signature is invalid")

	// Authentication and authorization errors
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Invalid credentials")
	ErrInvalidCredentials = NewDomainError(CodeInvalidCreds, "Invalid credentials")
	ErrForbidden          = NewDomainError(CodeForbidden, "Insufficient permissions")
	ErrUnconfirmed        = NewDomainError(CodeUnconfirmed, "Unconfirmed account")

	// User errors
	ErrEmailExists    = NewDomainError(CodeEmailExists, "Email already registered.")
	ErrUsernameExists = NewDomainError(CodeUsernameExists, "Username already registered.")
	ErrUnknownEmail   = NewDomainError(CodeUnknownEmail, "Email not exist.")
	ErrWrongPassword  = NewDomainError(CodeWrongPassword, "Password error.")
	ErrInvalidToken   = NewDomainError(CodeInvalidToken, "The link is invalid or has expired.")

	// System errors
	ErrInternal           = NewDomainError(CodeInternal, "internal server error")
	ErrServiceUnavailable = NewDomainError(CodeServiceUnavailable, "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

// domainErrorToHTTPStatus maps specific domain errors to HTTP status codes
func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case CodeUnknownField, CodeBadTimestamp, CodeBadEnum, CodeInvalidPage,
		CodeInvalidInput, CodeStoreConflict, CodeEmailExists, CodeUsernameExists,
		CodeUnknownEmail, CodeWrongPassword, CodeInvalidToken:
		return http.StatusBadRequest

	// 401 Unauthorized
	case CodeUnauthorized, CodeInvalidCreds, CodeMalformedToken,
		CodeTokenExpired, CodeSignatureInvalid:
		return http.StatusUnauthorized

	// 403 Forbidden
	case CodeForbidden, CodeUnconfirmed:
		return http.StatusForbidden

	// 404 Not Found
	case CodeNotFound, CodeInvalidReference, CodeQueryFailed:
		return http.StatusNotFound

	// 503 Service Unavailable
	case CodeStoreUnavailable, CodeServiceUnavailable:
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the caller-facing error message.
// The wrapped cause is never included.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
