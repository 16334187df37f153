package errors

import (
	"fmt"
	"maps"
	"net/http"
)

// AppError is the error every handler failure is turned into.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"` // safe to show to clients
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"` // logged, never rendered
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// IsServerError reports whether the error maps to a 5xx status.
func (e *AppError) IsServerError() bool {
	return e.HTTPStatus >= http.StatusInternalServerError
}

// New creates an AppError with an explicit status.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// newCode creates an AppError with code's default status.
func newCode(code ErrorCode, message string) *AppError {
	return New(code, message, code.Status())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// NotFound reports a missing resource: NotFound("Todo", 7) reads
// "Todo with ID 7 not found".
func NotFound(resource string, id any) *AppError {
	return newCode(ErrCodeNotFound, fmt.Sprintf("%s with ID %v not found", resource, id))
}

// Conflict reports a clash with existing state, such as a taken username.
func Conflict(message string) *AppError {
	return newCode(ErrCodeConflict, message)
}

// BadRequest reports a request that could not be understood.
func BadRequest(message string) *AppError {
	return newCode(ErrCodeBadRequest, orDefault(message, "Bad request"))
}

// PayloadTooLarge reports a body over limit bytes.
func PayloadTooLarge(limit int64) *AppError {
	return newCode(ErrCodePayloadTooLarge, "Request body too large").WithDetail("max_bytes", limit)
}

// FieldError describes one failed field check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Validation reports failed field checks under details.validation_errors.
func Validation(fields []FieldError) *AppError {
	if fields == nil {
		fields = []FieldError{}
	}
	return newCode(ErrCodeValidation, "Request validation failed").WithDetail("validation_errors", fields)
}

// Unauthorized reports a request without usable credentials.
func Unauthorized(reason string) *AppError {
	return newCode(ErrCodeUnauthorized, orDefault(reason, "Not authenticated"))
}

// Forbidden reports an authenticated caller acting on someone else's data.
func Forbidden(reason string) *AppError {
	return newCode(ErrCodeForbidden, orDefault(reason, "Forbidden"))
}

// TokenExpired reports a bearer token past its expiry.
func TokenExpired() *AppError {
	return newCode(ErrCodeTokenExpired, "Token has expired")
}

// InvalidToken covers bad signatures, unknown subjects and inactive
// accounts with one message.
func InvalidToken() *AppError {
	return newCode(ErrCodeInvalidToken, "Invalid authentication credentials")
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return newCode(ErrCodeInternal, "An unexpected error occurred").WithCause(cause)
}

// DatabaseError hides a storage failure behind a generic message.
func DatabaseError(cause error) *AppError {
	return newCode(ErrCodeDatabaseError, "Database error occurred").WithCause(cause)
}

// ServiceUnavailable reports a dependency that is temporarily out of reach.
func ServiceUnavailable(service string) *AppError {
	return newCode(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service)).
		WithDetail("service", service)
}

// Timeout reports an operation that ran out of time.
func Timeout(operation string) *AppError {
	return newCode(ErrCodeTimeout, "The request took too long. Please try again.").WithDetail("operation", operation)
}
