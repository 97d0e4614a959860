// Package errors defines the error taxonomy of the search engine: sentinel
// errors for each failure class and an AppError wrapper carrying an HTTP
// status for the API layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidArgument is returned when a required query parameter is
	// missing, empty, or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned by the single-file lookup when no record
	// matches the requested filename.
	ErrNotFound = errors.New("not found")
	// ErrIndexUnavailable is returned when a query arrives before the
	// first successful snapshot build completes.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrInternal covers unexpected failures.
	ErrInternal = errors.New("internal error")
)

// AppError wraps a sentinel with a message and an explicit HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError from a sentinel, status code, and message.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with printf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the API layer should
// respond with.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
