package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that can be rendered to API consumers with a
// stable machine-readable code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Errors shared across the audit API. The codes and messages are part of the
// wire contract consumed by the dashboard.
var (
	ErrMissingAction = &AppError{
		Code:       "MISSING_ACTION",
		Message:    "Action is required",
		StatusCode: http.StatusBadRequest,
	}

	ErrMissingEntityType = &AppError{
		Code:       "MISSING_ENTITY_TYPE",
		Message:    "Entity type is required",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidMetadata = &AppError{
		Code:       "INVALID_METADATA",
		Message:    "Invalid metadata format",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidID = &AppError{
		Code:       "INVALID_ID",
		Message:    "Valid ID is required",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Audit log not found",
		StatusCode: http.StatusNotFound,
	}

	ErrRateLimit = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal wraps an unexpected failure, surfacing the underlying message the
// way the audit API reports 500s.
func Internal(err error) *AppError {
	msg := "Internal server error"
	if err != nil {
		msg = fmt.Sprintf("Internal server error: %v", err)
	}
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to an
// internal error that carries the underlying message.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal(err)
}
