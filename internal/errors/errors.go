package errors

import (
	"fmt"
)

// SonarError is the structured error type for logsonar.
// It provides context for error handling, logging, and user presentation.
type SonarError struct {
	// Code is the unique error code (e.g., "ERR_202_SOURCE_TERMINATED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Source, Embedding, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *SonarError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SonarError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SonarError.
func (e *SonarError) Is(target error) bool {
	if t, ok := target.(*SonarError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SonarError) WithDetail(key, value string) *SonarError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SonarError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SonarError {
	return &SonarError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new SonarError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *SonarError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap wraps an existing error with a code and message.
// Returns nil if err is nil.
func Wrap(err error, code string, message string) *SonarError {
	if err == nil {
		return nil
	}
	return New(code, message, err)
}

// IsFatal reports whether err carries a fatal SonarError anywhere in its chain.
func IsFatal(err error) bool {
	for err != nil {
		if se, ok := err.(*SonarError); ok && se.Severity == SeverityFatal {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
