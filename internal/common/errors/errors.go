// Package errors provides standardized error handling for the advising
// workflow workers, including conversion to BPMN errors for the engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Matching pipeline outcomes. VALIDATION_ERROR is caller-correctable
	// (4xx-equivalent), NOT_FOUND is a data issue, NO_MATCH is a legitimate
	// empty result, not a system fault.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeNoMatch    ErrorCode = "NO_MATCH"

	ErrCodeChatFetchFailed  ErrorCode = "CHAT_FETCH_FAILED"
	ErrCodeAnalysisFailed   ErrorCode = "ANALYSIS_FAILED"
	ErrCodeResultSaveFailed ErrorCode = "RESULT_SAVE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	ErrCodeLLMTimeout             ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed    ErrorCode = "LLM_GENERATION_FAILED"
	ErrCodeConnectionPushFailed   ErrorCode = "CONNECTION_PUSH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is makes errors.Is match on code so call sites can classify wrapped errors.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// CodeOf extracts the error code from err, or empty when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Invalid analysis data: missing required fields",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable empty-candidate-pool error.
func NewNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "No professors found in directory",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoMatchError creates a non-retryable no-qualifying-candidate error.
func NewNoMatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatch,
		Message:   "No suitable professor matches found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChatFetchFailedError creates a retryable transcript fetch error.
func NewChatFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChatFetchFailed,
		Message:   "Failed to fetch chat data",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFailedError creates a retryable analysis error.
func NewAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Chat analysis failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultSaveFailedError creates a retryable persistence error.
func NewResultSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultSaveFailed,
		Message:   "Failed to persist consultation result",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEngineUnavailableError creates a retryable workflow engine error.
func NewEngineUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineUnavailable,
		Message:   "Workflow engine unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEngineTimeoutError creates a retryable workflow engine timeout error.
func NewEngineTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineTimeout,
		Message:   "Workflow engine call timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM call timeout",
		Details:   "inference call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMGenerationFailedError creates a retryable LLM error.
func NewLLMGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMGenerationFailed,
		Message:   "LLM generation error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConnectionPushFailedError creates a retryable connection push error.
func NewConnectionPushFailedError(connectionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectionPushFailed,
		Message:   "Failed to push message to connection",
		Details:   fmt.Sprintf("connectionId: %s, error: %s", connectionID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeChatFetchFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeResultSaveFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeConnectionPushFailed,
		ErrCodeEngineUnavailable:
		return 3

	case ErrCodeAnalysisFailed,
		ErrCodeQueryTimeout,
		ErrCodeEngineTimeout,
		ErrCodeLLMGenerationFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business outcomes: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}
