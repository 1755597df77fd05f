package errors

import (
	stderrors "errors"
	"fmt"
)

// ScribeError is the structured error type for codescribe.
// It provides rich context for error handling, logging, and user presentation.
type ScribeError struct {
	// Code is the unique error code (e.g., "ERR_401_LOCK_CONTENTION").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Oracle, Lock, Internal).
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
func (e *ScribeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ScribeError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ScribeError.
func (e *ScribeError) Is(target error) bool {
	if t, ok := target.(*ScribeError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ScribeError) WithDetail(key, value string) *ScribeError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new ScribeError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ScribeError {
	return &ScribeError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ScribeError from an existing error.
// The error's message becomes the ScribeError message.
func Wrap(code string, err error) *ScribeError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Contention creates a lock-contention error for the given target path.
// Contention is an expected outcome under concurrent use, not a failure.
func Contention(targetPath string) *ScribeError {
	return New(ErrCodeLockContention, "lock held by another process", nil).
		WithDetail("path", targetPath)
}

// StorageError creates an index-storage-related error.
func StorageError(message string, cause error) *ScribeError {
	return New(ErrCodeRecordRead, message, cause)
}

// OracleError creates a documentation-oracle-related error.
// Oracle availability errors are retryable.
func OracleError(message string, cause error) *ScribeError {
	return New(ErrCodeOracleUnavailable, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ScribeError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ScribeError {
	return New(ErrCodeInternal, message, cause)
}

// IsContention reports whether err (or any error in its chain) is a
// lock-contention error. Callers use this to treat a path as "being
// handled elsewhere" rather than failing.
func IsContention(err error) bool {
	var se *ScribeError
	if stderrors.As(err, &se) {
		return se.Code == ErrCodeLockContention
	}
	return false
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a ScribeError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *ScribeError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a ScribeError.
// Returns empty string if not a ScribeError.
func GetCode(err error) string {
	var se *ScribeError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ScribeError.
// Returns empty string if not a ScribeError.
func GetCategory(err error) Category {
	var se *ScribeError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
