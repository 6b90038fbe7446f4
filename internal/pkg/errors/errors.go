package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the internal failure class of an error. Its string form is also the
// code sent to clients.
type Kind string

// Failure kinds
const (
	KindMalformedInput         Kind = "MALFORMED_INPUT"
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindMissingField           Kind = "MISSING_FIELD"
	KindMalformedEncoding      Kind = "INVALID_JSON"
	KindInvalidToken           Kind = "INVALID_TOKEN"
	KindInvalidCredentials     Kind = "INVALID_CREDENTIALS"
	KindAuthenticationRequired Kind = "UNAUTHORIZED"
	KindPermissionDenied       Kind = "FORBIDDEN"
	KindNotFound               Kind = "NOT_FOUND"
	KindRateLimited            Kind = "RATE_LIMITED"
	KindTimeout                Kind = "TIMEOUT"
	KindServiceUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindConnectionFailure      Kind = "CONNECTION_FAILURE"
	KindUnknownOperationType   Kind = "UNKNOWN_OPERATION_TYPE"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Kind       Kind              `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(kind Kind, message string, statusCode int) *AppError {
	return &AppError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
	}
}

// MalformedInput creates an error for a request that cannot be parsed at all
func MalformedInput(message string) *AppError {
	return New(KindMalformedInput, message, http.StatusBadRequest)
}

// InvalidArgument creates an error for a well-formed but unacceptable value
func InvalidArgument(message string) *AppError {
	return New(KindInvalidArgument, message, http.StatusBadRequest)
}

// MissingField creates an error for an absent required field. An empty
// message defaults to "Missing field: <field>".
func MissingField(field, message string) *AppError {
	if message == "" {
		message = "Missing field: " + field
	}
	return New(KindMissingField, message, http.StatusBadRequest).WithDetail("field", field)
}

// MalformedEncoding creates an error for a payload that is not valid JSON
func MalformedEncoding(err error) *AppError {
	return New(KindMalformedEncoding, "Invalid JSON", http.StatusBadRequest).WithError(err)
}

// InvalidToken creates an error for a rejected bearer token
func InvalidToken() *AppError {
	return New(KindInvalidToken, "Invalid token", http.StatusUnauthorized)
}

// InvalidCredentials creates an error for rejected basic credentials
func InvalidCredentials() *AppError {
	return New(KindInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

// Unauthorized creates an error for a route that needs a principal
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return New(KindAuthenticationRequired, message, http.StatusUnauthorized)
}

// Forbidden creates a permission denied error
func Forbidden(message string) *AppError {
	if message == "" {
		message = "Permission denied"
	}
	return New(KindPermissionDenied, message, http.StatusForbidden)
}

// NotFound creates a not found error for a path or resource
func NotFound(resource string) *AppError {
	return New(KindNotFound, "Not found: "+resource, http.StatusNotFound)
}

// RateLimited creates a rate limited error
func RateLimited() *AppError {
	return New(KindRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// Timeout creates a timeout error
func Timeout(err error) *AppError {
	return New(KindTimeout, "Request timeout", http.StatusGatewayTimeout).WithError(err)
}

// ServiceUnavailable creates an error for an unavailable dependency
func ServiceUnavailable(err error) *AppError {
	return New(KindServiceUnavailable, "Service unavailable", http.StatusServiceUnavailable).WithError(err)
}

// ConnectionFailure creates an error for a dependency that could not be reached
func ConnectionFailure(err error) *AppError {
	return New(KindConnectionFailure, "Service unavailable", http.StatusServiceUnavailable).WithError(err)
}

// UnknownOperationType creates an error for an unrecognised batch operation tag
func UnknownOperationType(opType string) *AppError {
	return New(KindUnknownOperationType, "Unknown operation type: "+opType, http.StatusBadRequest)
}

// Internal creates an internal server error
func Internal(message string) *AppError {
	return New(KindInternal, message, http.StatusInternalServerError)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	return Classify(err).Status
}

// IsKind checks whether err classifies as kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsMissingField checks if the error is a missing field error
func IsMissingField(err error) bool {
	return IsKind(err, KindMissingField)
}

// IsForbidden checks if the error is a permission denied error
func IsForbidden(err error) bool {
	return IsKind(err, KindPermissionDenied)
}
