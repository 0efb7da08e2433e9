package domain

import (
	"errors"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles a MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfigUnavailable indicates the workspace configuration could not be resolved.
	// Imports fail immediately without it.
	ErrConfigUnavailable = errors.New("workspace configuration unavailable")

	// ErrNotAFile indicates the import source is a directory or special file.
	ErrNotAFile = errors.New("source is not a regular file")

	// ErrFileTooLarge indicates the import source exceeds the configured size limit.
	ErrFileTooLarge = errors.New("source file too large")

	// ErrOutsideWorkspace indicates a path resolves outside the workspace root.
	ErrOutsideWorkspace = errors.New("path outside workspace")

	// Confirmation Errors.

	// ErrNothingAwaitingConfirmation indicates no task is parked at the confirmation gate.
	ErrNothingAwaitingConfirmation = errors.New("no import awaiting confirmation")

	// ErrStaleConfirmation indicates a confirm or cancel targeted a task that is no longer parked.
	ErrStaleConfirmation = errors.New("confirmation does not match the parked import")

	// ErrNoDirectorySelected indicates a confirm call carried an empty destination.
	ErrNoDirectorySelected = errors.New("no destination directory selected")

	// ErrNoStagedRecord indicates the parked import has no staged record to save.
	ErrNoStagedRecord = errors.New("no staged record")

	// ErrQueueClosed indicates the import queue has shut down.
	ErrQueueClosed = errors.New("import queue closed")

	// AI Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Recommendation falls back to rule-based categorisation without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingested chunks are stored without vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// Service error codes reported by collaborators.
const (
	CodeSourceFileMissing   = "SOURCE_FILE_MISSING"
	CodeInvalidFileType     = "INVALID_FILE_TYPE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeConversionFailed    = "CONVERSION_FAILED"
	CodeConversionError     = "CONVERSION_ERROR"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeNoContent           = "NO_CONTENT"
	CodeDescribeFailed      = "DESCRIBE_FAILED"
	CodeEmbeddingError      = "EMBEDDING_ERROR"
	CodeLLMNotAvailable     = "LLM_NOT_AVAILABLE"
	CodeLLMError            = "LLM_ERROR"
	CodeEmptyRecommendation = "EMPTY_RECOMMENDATION"
)

// ServiceError is a semantic failure: the collaborator ran but reported
// that the operation did not succeed. Any other error is treated as a
// transport failure.
type ServiceError struct {
	// Code is a machine-readable failure code such as CONVERSION_FAILED.
	Code string

	// Message is the collaborator's human-readable reason.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// NewServiceError creates a semantic failure with the given code and reason.
func NewServiceError(code, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

var conversionCodes = map[string]bool{
	CodeConversionFailed:    true,
	CodeConversionError:     true,
	CodeUnsupportedFileType: true,
	CodeDescribeFailed:      true,
	CodeNoContent:           true,
}

var conversionKeywords = []string{"convert", "conversion", "describe", "extract"}

// IsConversionFailure reports whether err is a semantic failure caused by
// content conversion or description, by code or by message keyword.
func IsConversionFailure(err error) bool {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return false
	}
	if conversionCodes[strings.ToUpper(svcErr.Code)] {
		return true
	}
	msg := strings.ToLower(svcErr.Message)
	for _, kw := range conversionKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// IsServiceError reports whether err carries a semantic failure.
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}
