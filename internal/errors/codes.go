// Package errors provides structured error handling for logsonar.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Log source errors (subprocess, file tail)
//   - 3XX: Embedding errors (network, model)
//   - 4XX: Validation errors (queries, dimensions)
//   - 5XX: Internal errors (index invariants)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategorySource indicates log source errors.
	CategorySource Category = "SOURCE"
	// CategoryEmbedding indicates embedding backend errors.
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
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
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Source errors (200-299)
	ErrCodeSourceSpawn      = "ERR_201_SOURCE_SPAWN"
	ErrCodeSourceTerminated = "ERR_202_SOURCE_TERMINATED"
	ErrCodeSourceFile       = "ERR_203_SOURCE_FILE"

	// Embedding errors (300-399)
	ErrCodeEmbedUnavailable = "ERR_301_EMBED_UNAVAILABLE"
	ErrCodeEmbedTimeout     = "ERR_302_EMBED_TIMEOUT"
	ErrCodeEmbedBatch       = "ERR_303_EMBED_BATCH"

	// Validation errors (400-499)
	ErrCodeQueryEmpty        = "ERR_401_QUERY_EMPTY"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeInvalidOption     = "ERR_403_INVALID_OPTION"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeIndexCorrupt = "ERR_502_INDEX_CORRUPT"
	ErrCodeStoreClosed  = "ERR_503_STORE_CLOSED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategorySource
	case '3':
		return CategoryEmbedding
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt:
		// A size invariant violation means vectors and metadata have
		// desynchronized; results can no longer be trusted.
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
	case ErrCodeEmbedUnavailable, ErrCodeEmbedTimeout, ErrCodeSourceTerminated:
		return true
	default:
		return false
	}
}
