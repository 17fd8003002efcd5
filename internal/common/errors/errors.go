// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Wizard / validation
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeWizardNotFound              ErrorCode = "WIZARD_NOT_FOUND"
	ErrCodeStepNotFound                ErrorCode = "STEP_NOT_FOUND"

	// Submission pipeline
	ErrCodeSubmissionFailed     ErrorCode = "SUBMISSION_FAILED"
	ErrCodeDuplicateSubmission  ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeIndexingFailed       ErrorCode = "INDEXING_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	// Draft persistence
	ErrCodeDraftStorageFailed ErrorCode = "DRAFT_STORAGE_FAILED"
	ErrCodeDraftQuotaExceeded ErrorCode = "DRAFT_QUOTA_EXCEEDED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// SPV back office
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAdminValidationFailed ErrorCode = "ADMIN_VALIDATION_FAILED"
	ErrCodeInvalidAccessCode     ErrorCode = "INVALID_ACCESS_CODE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// SubmissionFailedMessage is the only text shown to an applicant when a submission fails.
const SubmissionFailedMessage = "An error occurred while submitting your application. Please try again or contact support."

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

// WithMetadata returns e with key set in its metadata map.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

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

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed", details, false)
}

func NewWizardNotFoundError(wizardID string) *StandardError {
	return newError(ErrCodeWizardNotFound, "Wizard not found", fmt.Sprintf("wizardId: %s", wizardID), false)
}

func NewStepNotFoundError(wizardID, stepID string) *StandardError {
	return newError(ErrCodeStepNotFound, "Step not found", fmt.Sprintf("wizardId: %s, stepId: %s", wizardID, stepID), false)
}

// NewSubmissionFailedError carries the transport failure in Details; Message is
// safe to show to the applicant.
func NewSubmissionFailedError(err error) *StandardError {
	return newError(ErrCodeSubmissionFailed, SubmissionFailedMessage, err.Error(), false)
}

func NewDuplicateSubmissionError(reference string) *StandardError {
	return newError(ErrCodeDuplicateSubmission, "Submission already recorded", fmt.Sprintf("reference: %s", reference), false)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Search indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewDraftStorageFailedError(backend string, err error) *StandardError {
	return newError(ErrCodeDraftStorageFailed, "Draft storage operation failed",
		fmt.Sprintf("backend: %s, error: %s", backend, err.Error()), true)
}

func NewDraftQuotaExceededError(size, limit int) *StandardError {
	return newError(ErrCodeDraftQuotaExceeded, "Draft exceeds storage quota",
		fmt.Sprintf("size: %d, limit: %d", size, limit), false)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewResourceNotFoundError(resource, id string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource), fmt.Sprintf("id: %s", id), false)
}

func NewAdminValidationFailedError(details string) *StandardError {
	return newError(ErrCodeAdminValidationFailed, "Invalid back-office input", details, false)
}

func NewInvalidAccessCodeError() *StandardError {
	return newError(ErrCodeInvalidAccessCode, "Invalid access code", "", false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// AsStandard unwraps err to a *StandardError if there is one in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeApplicationValidationFailed: "APPLICATION_VALIDATION_FAILED",
	ErrCodeWizardNotFound:              "APPLICATION_VALIDATION_FAILED",
	ErrCodeStepNotFound:                "APPLICATION_VALIDATION_FAILED",
	ErrCodeSubmissionFailed:            "SUBMISSION_FAILED",
	ErrCodeDuplicateSubmission:         "DUPLICATE_SUBMISSION",
	ErrCodeDatabaseInsertFailed:        "DATABASE_INSERT_FAILED",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:        "QUERY_EXECUTION_FAILED",
	ErrCodeIndexingFailed:              "INDEXING_FAILED",
	ErrCodeNotificationSendFailed:      "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeDraftStorageFailed:
		return 3

	case ErrCodeIndexingFailed:
		return 2

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
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

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DRAFT"):
		return "DRAFT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SUBMISSION"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "ACCESS_CODE") || strings.Contains(codeStr, "ADMIN"):
		return "ADMIN"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
