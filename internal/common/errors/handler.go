// internal/common/errors/handler.go
package errors

import "net/http"

// Notice keys shown to the user. Detailed codes never leave the server.
const (
	NoticeSubmissionFailed  = "submission.failed"
	NoticeSignInRequired    = "auth.sign_in_required"
	NoticeValidationFailed  = "form.fix_errors"
	NoticeSubmissionBusy    = "submission.in_progress"
	NoticeNotFound          = "wizard.not_found"
	NoticeInvalidRequest    = "request.invalid"
	NoticeUnexpectedProblem = "error.unexpected"
)

// UserNotice is what the boundary returns for a failed operation.
type UserNotice struct {
	Key       string            `json:"notice"`
	Status    int               `json:"-"`
	Retryable bool              `json:"retryable"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ToUserNotice collapses any error into a single notice key. Every network,
// upload and persist failure maps to submission.failed.
func ToUserNotice(err error) UserNotice {
	stdErr := AsStandardError(err)
	if stdErr == nil {
		return UserNotice{}
	}

	switch stdErr.Code {
	case ErrCodeNotAuthenticated, ErrCodeInvalidToken:
		return UserNotice{Key: NoticeSignInRequired, Status: http.StatusUnauthorized}
	case ErrCodeValidationFailed, ErrCodeNotAtFinalStep:
		n := UserNotice{Key: NoticeValidationFailed, Status: http.StatusUnprocessableEntity}
		if fields, ok := stdErr.Metadata["fields"].(map[string]string); ok {
			n.Fields = fields
		}
		return n
	case ErrCodeSubmissionInProgress:
		return UserNotice{Key: NoticeSubmissionBusy, Status: http.StatusConflict}
	case ErrCodeSessionNotFound, ErrCodeDocumentNotFound:
		return UserNotice{Key: NoticeNotFound, Status: http.StatusNotFound}
	case ErrCodeUnknownEntity, ErrCodeInvalidInput:
		return UserNotice{Key: NoticeInvalidRequest, Status: http.StatusBadRequest}
	case ErrCodeInternal:
		return UserNotice{Key: NoticeUnexpectedProblem, Status: http.StatusInternalServerError}
	}

	return UserNotice{
		Key:       NoticeSubmissionFailed,
		Status:    http.StatusBadGateway,
		Retryable: IsRetryableErrorCode(stdErr.Code),
	}
}

// ErrorHandler logs errors at the boundary and converts them to notices.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its full detail and returns the user-facing notice.
func (h *ErrorHandler) Handle(operation string, err error) UserNotice {
	stdErr := AsStandardError(err)
	if stdErr == nil {
		return UserNotice{}
	}

	h.logger.Error("Operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"metadata":      stdErr.Metadata,
	})

	return ToUserNotice(stdErr)
}
