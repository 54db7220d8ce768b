package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the outcomes stores and services report.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrDependency      = errors.New("dependency failure")
)

// AppError is a structured application error carrying an HTTP status mapping.
// Reasons holds itemized validation failures when Code is VALIDATION_FAILED.
type AppError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
	Status  int      `json:"-"`
	Err     error    `json:"-"`
}

func (e *AppError) Error() string {
	if len(e.Reasons) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, strings.Join(e.Reasons, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a 400 error with itemized reasons. Every violated rule is
// reported, not just the first one encountered.
func Validation(message string, reasons ...string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Message: message,
		Reasons: reasons,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// Conflict creates a 409 error for a duplicate unique key.
func Conflict(resource, field, value string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Unauthenticated creates a 401 error. The message is deliberately uniform
// across the missing-token, bad-token, and expired-token cases so callers
// cannot distinguish which part of a credential failed.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthenticated,
	}
}

// Forbidden creates a 403 error for an identity that lacks standing.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Dependency creates a 500 error for a storage or hashing primitive failure.
// The wrapped cause is logged server-side; the caller only sees an opaque
// message.
func Dependency(err error) *AppError {
	return &AppError{
		Code:    "DEPENDENCY_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrDependency, err),
	}
}

// SessionCreation creates the distinct 500 returned when credentials were
// accepted but the session row could not be persisted. The client must know
// the account action itself did not fail.
func SessionCreation(err error) *AppError {
	return &AppError{
		Code:    "SESSION_CREATION_FAILED",
		Message: "login succeeded but session creation failed",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrDependency, err),
	}
}

// HTTPStatus returns the HTTP status for err, honoring AppError and the
// sentinel hierarchy. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
