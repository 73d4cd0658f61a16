// Package errors provides the structured error taxonomy shared by the wizard,
// the submission pipeline and the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotAtFinalStep       ErrorCode = "NOT_AT_FINAL_STEP"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeDocumentSchemaFailed ErrorCode = "DOCUMENT_SCHEMA_INVALID"

	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeAuthVerifyFailed   ErrorCode = "AUTH_VERIFY_FAILED"
	ErrCodeTokenSigningFailed ErrorCode = "TOKEN_SIGNING_FAILED"

	ErrCodeAssetUploadFailed    ErrorCode = "ASSET_UPLOAD_FAILED"
	ErrCodeDocumentCreateFailed ErrorCode = "DOCUMENT_CREATE_FAILED"
	ErrCodeDocumentPatchFailed  ErrorCode = "DOCUMENT_PATCH_FAILED"
	ErrCodeDocumentFetchFailed  ErrorCode = "DOCUMENT_FETCH_FAILED"
	ErrCodeDocumentNotFound     ErrorCode = "DOCUMENT_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeStepStoreFailed          ErrorCode = "STEP_STORE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "SEARCH_INDEXING_FAILED"

	ErrCodeSessionNotFound ErrorCode = "WIZARD_SESSION_NOT_FOUND"
	ErrCodeUnknownEntity   ErrorCode = "UNKNOWN_ENTITY"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError reports that one or more steps did not validate.
// The per-field messages travel in Metadata["fields"].
func NewValidationFailedError(fields map[string]string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Form validation failed",
		fmt.Sprintf("%d invalid field(s)", len(fields)), false, nil)
	return e.WithMetadata("fields", fields)
}

// NewNotAtFinalStepError reports a submit attempt before the last step.
func NewNotAtFinalStepError(current, total int) *StandardError {
	return newError(ErrCodeNotAtFinalStep, "Submission is only allowed on the final step",
		fmt.Sprintf("current step %d of %d", current, total), false, nil)
}

// NewSubmissionInProgressError reports a second concurrent submit on one form.
func NewSubmissionInProgressError(formID string) *StandardError {
	return newError(ErrCodeSubmissionInProgress, "A submission is already in progress",
		fmt.Sprintf("formId: %s", formID), false, nil)
}

// NewDocumentSchemaError reports an assembled document that fails its schema.
func NewDocumentSchemaError(entity string, problems []string) *StandardError {
	e := newError(ErrCodeDocumentSchemaFailed, "Assembled document failed schema validation",
		fmt.Sprintf("entity: %s, problems: %s", entity, strings.Join(problems, "; ")), false, nil)
	return e.WithMetadata("problems", problems)
}

// NewNotAuthenticatedError is returned when no valid session backs a request.
func NewNotAuthenticatedError(details string) *StandardError {
	return newError(ErrCodeNotAuthenticated, "Authentication required", details, false, nil)
}

// NewInvalidTokenError is the single, undifferentiated token failure.
func NewInvalidTokenError() *StandardError {
	return newError(ErrCodeInvalidToken, "Invalid or expired token", "", false, nil)
}

// NewAuthVerifyFailedError reports a transport failure talking to the verify endpoint.
func NewAuthVerifyFailedError(err error) *StandardError {
	return newError(ErrCodeAuthVerifyFailed, "Session verification failed", detailsOf(err), true, err)
}

// NewTokenSigningFailedError reports a failure to sign a session token.
func NewTokenSigningFailedError(err error) *StandardError {
	return newError(ErrCodeTokenSigningFailed, "Token signing failed", detailsOf(err), false, err)
}

// NewAssetUploadFailedError reports a failed asset upload.
func NewAssetUploadFailedError(field string, err error) *StandardError {
	return newError(ErrCodeAssetUploadFailed, "Asset upload failed",
		fmt.Sprintf("field: %s, error: %s", field, detailsOf(err)), true, err)
}

// NewDocumentCreateFailedError reports a failed create call.
func NewDocumentCreateFailedError(docType string, err error) *StandardError {
	return newError(ErrCodeDocumentCreateFailed, "Document create failed",
		fmt.Sprintf("type: %s, error: %s", docType, detailsOf(err)), true, err)
}

// NewDocumentPatchFailedError reports a failed patch commit.
func NewDocumentPatchFailedError(id string, err error) *StandardError {
	return newError(ErrCodeDocumentPatchFailed, "Document patch failed",
		fmt.Sprintf("id: %s, error: %s", id, detailsOf(err)), true, err)
}

// NewDocumentFetchFailedError reports a failed query.
func NewDocumentFetchFailedError(err error) *StandardError {
	return newError(ErrCodeDocumentFetchFailed, "Document query failed", detailsOf(err), true, err)
}

// NewDocumentNotFoundError reports a missing document id.
func NewDocumentNotFoundError(id string) *StandardError {
	return newError(ErrCodeDocumentNotFound, "Document not found", fmt.Sprintf("id: %s", id), false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", detailsOf(err), true, err)
}

// NewStepStoreFailedError reports a step index persistence failure.
func NewStepStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeStepStoreFailed, "Step index persistence failed",
		fmt.Sprintf("op: %s, error: %s", op, detailsOf(err)), true, err)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, detailsOf(err)), true, err)
}

// NewIndexingFailedError reports a search indexing failure.
func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Search indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, detailsOf(err)), true, err)
}

// NewSessionNotFoundError reports an unknown wizard session id.
func NewSessionNotFoundError(id string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Wizard session not found", fmt.Sprintf("sessionId: %s", id), false, nil)
}

// NewUnknownEntityError reports an entity type without a registered form.
func NewUnknownEntityError(entity string) *StandardError {
	return newError(ErrCodeUnknownEntity, "Unknown entity type", fmt.Sprintf("entity: %s", entity), false, nil)
}

// NewInvalidInputError reports a malformed request payload.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError normalises any error into a StandardError.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode reports whether the failure is transient. Nothing in
// the submission path retries automatically; the flag tells the user whether
// trying again can help.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeAssetUploadFailed,
		ErrCodeDocumentCreateFailed,
		ErrCodeDocumentPatchFailed,
		ErrCodeDocumentFetchFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeStepStoreFailed,
		ErrCodeAuthVerifyFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeIndexingFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "TOKEN"):
		return "AUTH"
	case strings.Contains(codeStr, "ASSET"):
		return "UPLOAD"
	case strings.Contains(codeStr, "DOCUMENT") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "STEP_STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "INDEXING"):
		return "SIDE_EFFECT"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "STEP"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
