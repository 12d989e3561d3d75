package apperror

import "net/http"

// Machine-readable error kinds returned to clients alongside the message.
const (
	KindBadRequest          = "bad_request"
	KindValidation          = "validation_failed"
	KindUnauthorized        = "unauthorized"
	KindForbidden           = "forbidden"
	KindNotFound            = "not_found"
	KindConflict            = "conflict"
	KindTooManyRequests     = "too_many_requests"
	KindInternal            = "internal_error"
	KindInvalidFilter       = "invalid_filter"
	KindInvalidStatus       = "invalid_status"
	KindDuplicateEmail      = "duplicate_email"
	KindUnsupportedFileType = "unsupported_file_type"
	KindFileTooLarge        = "file_too_large"
	KindFileContentMismatch = "file_content_mismatch"
	KindFileInfected        = "file_infected"
	KindUploadRateLimited   = "upload_rate_limited"
)

type AppError struct {
	Code    int      `json:"code"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithKind returns a copy of e carrying a more specific machine-readable kind.
func (e *AppError) WithKind(kind string) *AppError {
	cp := *e
	cp.Kind = kind
	return &cp
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindFor(code),
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

// Validation reports every violated field at once.
func Validation(message string, details []string) *AppError {
	e := New(http.StatusBadRequest, message, nil)
	e.Kind = KindValidation
	e.Details = details
	return e
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

func kindFor(code int) string {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	default:
		return KindInternal
	}
}
