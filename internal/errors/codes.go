// Package errors provides structured error handling for parasearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, database)
//   - 3XX: Embedding provider errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk, and database I/O errors.
	CategoryIO Category = "IO"
	// CategoryProvider indicates embedding provider errors.
	CategoryProvider Category = "PROVIDER"
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

	// IO errors (200-299)
	ErrCodeFileNotFound  = "ERR_201_FILE_NOT_FOUND"
	ErrCodeStorageOpen   = "ERR_202_STORAGE_OPEN"
	ErrCodeStorageBusy   = "ERR_203_STORAGE_BUSY"
	ErrCodeStorageWrite  = "ERR_204_STORAGE_WRITE"
	ErrCodeStorageLocked = "ERR_205_STORAGE_LOCKED"
	ErrCodeFileRead      = "ERR_206_FILE_READ"

	// Provider errors (300-399)
	ErrCodeEmbeddingFailed      = "ERR_301_EMBEDDING_FAILED"
	ErrCodeProviderUnavailable  = "ERR_302_PROVIDER_UNAVAILABLE"
	ErrCodeDimensionMismatch    = "ERR_303_DIMENSION_MISMATCH"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeNotADirectory  = "ERR_402_NOT_A_DIRECTORY"
	ErrCodeAlreadyWatched = "ERR_403_ALREADY_WATCHED"
	ErrCodeWatchCeiling   = "ERR_404_WATCH_CEILING"
	ErrCodeNotWatched     = "ERR_405_NOT_WATCHED"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the error category from the numeric range of a code.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from a code.
// Storage-open and config errors abort startup; everything else is recoverable.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageOpen, ErrCodeConfigInvalid, ErrCodeStorageLocked:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// retryableCodes lists codes whose operations may succeed on retry.
var retryableCodes = map[string]bool{
	ErrCodeStorageBusy:         true,
	ErrCodeStorageWrite:        true,
	ErrCodeFileRead:            true,
	ErrCodeEmbeddingFailed:     true,
	ErrCodeProviderUnavailable: true,
}

// isRetryableCode reports whether a code marks a retryable failure.
func isRetryableCode(code string) bool {
	return retryableCodes[code]
}
