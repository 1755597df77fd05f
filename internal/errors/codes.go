// Package errors provides structured error handling for codescribe.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage and filesystem errors
//   - 3XX: Documentation oracle (network) errors
//   - 4XX: Locking errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index storage and filesystem errors.
	CategoryStorage Category = "STORAGE"
	// CategoryOracle indicates documentation oracle (network/parse) errors.
	CategoryOracle Category = "ORACLE"
	// CategoryLock indicates lock acquisition and release errors.
	CategoryLock Category = "LOCK"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeRecordRead      = "ERR_201_RECORD_READ"
	ErrCodeRecordWrite     = "ERR_202_RECORD_WRITE"
	ErrCodeRecordCorrupt   = "ERR_203_RECORD_CORRUPT"
	ErrCodeProjectScope    = "ERR_204_PROJECT_SCOPE"
	ErrCodeUnsupportedPath = "ERR_205_UNSUPPORTED_PATH"
	ErrCodeDepthExceeded   = "ERR_206_DEPTH_EXCEEDED"

	// Oracle errors (300-399)
	ErrCodeOracleUnavailable = "ERR_301_ORACLE_UNAVAILABLE"
	ErrCodeOracleParse       = "ERR_302_ORACLE_PARSE"

	// Lock errors (400-499)
	ErrCodeLockContention = "ERR_401_LOCK_CONTENTION"
	ErrCodeLockArtifact   = "ERR_402_LOCK_ARTIFACT"
	ErrCodeLockRelease    = "ERR_403_LOCK_RELEASE"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeInvalidInput = "ERR_502_INVALID_INPUT"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryOracle
	case '4':
		return CategoryLock
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Contention is an expected outcome, not a failure.
	if code == ErrCodeLockContention {
		return SeverityInfo
	}

	switch code {
	case ErrCodeRecordCorrupt:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeOracleUnavailable, ErrCodeLockContention:
		return true
	default:
		return false
	}
}
