package errors

import (
	"errors"
	"fmt"
)

// CustomError represents an application error with metadata
type CustomError struct {
	Code       string      // Machine-readable error code
	Message    string      // Human-readable message
	StatusCode int         // HTTP status code
	Cause      error       // Underlying error
	Details    interface{} // Additional error details
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface for wrapping errors
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// Is checks if an error is of a specific type
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCustomError creates a new custom error
func NewCustomError(code string, message string, statusCode int) *CustomError {
	return &CustomError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithCause returns a copy carrying the underlying error. The predefined
// errors below are shared sentinels and must not be mutated.
func (e *CustomError) WithCause(err error) *CustomError {
	clone := *e
	clone.Cause = err
	return &clone
}

// WithDetails returns a copy carrying additional error details
func (e *CustomError) WithDetails(details interface{}) *CustomError {
	clone := *e
	clone.Details = details
	return &clone
}

// Pre-defined errors
var (
	// Validation errors (400)
	ErrInvalidURL = NewCustomError(
		"INVALID_URL",
		"Invalid URL format",
		400,
	)

	ErrURLRequired = NewCustomError(
		"URL_REQUIRED",
		"URL is required",
		400,
	)

	ErrInvalidRequest = NewCustomError(
		"INVALID_REQUEST",
		"Invalid request body",
		400,
	)

	ErrUnsupportedPlatform = NewCustomError(
		"UNSUPPORTED_PLATFORM",
		"Platform not supported. We support 20+ platforms including YouTube, Facebook, Instagram, TikTok, etc.",
		400,
	)

	// Extraction errors mapped from yt-dlp failure text
	ErrAccessDenied = NewCustomError(
		"ACCESS_DENIED",
		"This video is private or requires login",
		403,
	)

	ErrNotFound = NewCustomError(
		"NOT_FOUND",
		"Video not found or unavailable",
		404,
	)

	ErrUnsupportedContent = NewCustomError(
		"UNSUPPORTED_CONTENT",
		"This platform or video is not supported",
		400,
	)

	ErrTimeout = NewCustomError(
		"TIMEOUT",
		"Request timeout. Please try again.",
		408,
	)

	ErrUpstreamRateLimited = NewCustomError(
		"UPSTREAM_RATE_LIMITED",
		"Too many requests to the platform. Please try again later.",
		429,
	)

	// Server errors (500)
	ErrInternal = NewCustomError(
		"INTERNAL_ERROR",
		"Internal server error",
		500,
	)

	ErrExtractionFailed = NewCustomError(
		"EXTRACTION_ERROR",
		"Failed to fetch video information",
		500,
	)

	ErrStreamTransport = NewCustomError(
		"STREAM_ERROR",
		"Download stream error",
		500,
	)
)

// IsCustomError checks if an error is a CustomError
func IsCustomError(err error) bool {
	var customErr *CustomError
	return errors.As(err, &customErr)
}

// GetStatusCode extracts HTTP status code from an error
func GetStatusCode(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.StatusCode
	}
	return 500
}

// GetErrorCode extracts error code from an error
func GetErrorCode(err error) string {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorMessage extracts human-readable message from an error
func GetErrorMessage(err error) string {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	return "An unknown error occurred"
}
