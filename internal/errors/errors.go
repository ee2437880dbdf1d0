package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the caller identity is missing, invalid or unknown.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("access denied - admin only")
	// ErrNotFound is returned when a resource is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation is returned for malformed requests and barred operations.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrConflict is returned when a resource with the same key already exists.
	ErrConflict = errors.New("conflict")
	// ErrInternal is returned for unexpected store or collaborator failures.
	ErrInternal = errors.New("internal server error")
)

// Status values carried by every response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DomainError attaches a caller-facing message to one of the taxonomy errors.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// New builds a DomainError of the given kind.
func New(kind error, message string) error {
	return &DomainError{Kind: kind, Message: message}
}

// Unauthorized, Forbidden, NotFound, InvalidOperation and Conflict are shorthands for New.
func Unauthorized(message string) error     { return New(ErrUnauthorized, message) }
func Forbidden(message string) error        { return New(ErrForbidden, message) }
func NotFound(message string) error         { return New(ErrNotFound, message) }
func InvalidOperation(message string) error { return New(ErrInvalidOperation, message) }
func Conflict(message string) error         { return New(ErrConflict, message) }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  e.Message,
		Code:   e.Code,
	}
}

// IsInternal reports whether err maps to a 500 response.
func IsInternal(err error) bool {
	return MapErrorToHTTP(err).StatusCode == http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything outside the
// taxonomy collapses into a generic internal error so store details never
// reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	message := func(fallback error) string {
		var de *DomainError
		if errors.As(err, &de) && de.Message != "" {
			return de.Message
		}
		return fallback.Error()
	}

	switch {
	case err == nil:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, message(ErrUnauthorized), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, message(ErrForbidden), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, message(ErrNotFound), "NOT_FOUND")
	case errors.Is(err, ErrInvalidOperation):
		return NewHTTPError(http.StatusBadRequest, message(ErrInvalidOperation), "INVALID_OPERATION")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, message(ErrConflict), "CONFLICT")
	default:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	}
}
