package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrToolUnavailable marks a missing or non-functional external binary.
	ErrToolUnavailable = errors.New("external tool unavailable")
	// ErrUnsupportedFormat marks a file extension outside the accepted set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoSignal marks OCR output with no plausible eugenol reading.
	ErrNoSignal = errors.New("no usable signal in document")
	// ErrModelUnavailable marks a classifier artifact that did not load.
	ErrModelUnavailable = errors.New("model artifact unavailable")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
