package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an exsess error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrCorruptData    ErrorCode = "CORRUPT_DATA"    // 422
	ErrLaunchFailed   ErrorCode = "LAUNCH_FAILED"   // 502
	ErrGeometryFailed ErrorCode = "GEOMETRY_FAILED" // 502
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SessError represents a structured error with code, status, and details.
type SessError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *SessError) Unwrap() error {
	if cause, ok := e.Details["cause"].(error); ok {
		return cause
	}
	return nil
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SessError {
	return &SessError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a session key does not resolve.
func NewNotFound(key string) *SessError {
	return &SessError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("session not found: %s", key),
		Details: map[string]any{"key": key},
	}
}

// NewCorruptData creates a 422 error for a session record that does not parse.
func NewCorruptData(key string, cause error) *SessError {
	msg := fmt.Sprintf("session record is corrupt: %s", key)
	details := map[string]any{"key": key}
	if cause != nil {
		msg = fmt.Sprintf("session record is corrupt: %s: %v", key, cause)
		details["cause"] = cause
	}
	return &SessError{
		Code:    ErrCorruptData,
		Status:  422,
		Message: msg,
		Details: details,
	}
}

// NewLaunchFailed creates a 502 error for a window process that failed to start.
func NewLaunchFailed(path string, cause error) *SessError {
	return &SessError{
		Code:    ErrLaunchFailed,
		Status:  502,
		Message: fmt.Sprintf("failed to launch window for %q: %v", path, cause),
		Details: map[string]any{"path": path, "cause": cause},
	}
}

// NewGeometryFailed creates a 502 error for a window move/resize/show that failed.
func NewGeometryFailed(handle uintptr, cause error) *SessError {
	return &SessError{
		Code:    ErrGeometryFailed,
		Status:  502,
		Message: fmt.Sprintf("failed to apply geometry to window %#x: %v", handle, cause),
		Details: map[string]any{"handle": handle, "cause": cause},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SessError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SessError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a SessError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SessError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
