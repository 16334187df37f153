package errors

import (
	stderrors "errors"
	"net/http"
)

// Error type values rendered in ErrorBody.Type.
const (
	TypeClientError = "client_error"
	TypeServerError = "server_error"
)

// ErrorResponse is the JSON structure returned to clients.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	StatusCode int            `json:"status_code"`
	Message    string         `json:"message"`
	Type       string         `json:"type"`
	Details    map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	status := e.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	typ := TypeServerError
	if status >= 400 && status < 500 {
		typ = TypeClientError
	}
	var details map[string]any
	if len(e.Details) > 0 {
		details = e.Details
	}
	return ErrorResponse{
		Error: ErrorBody{
			StatusCode: status,
			Message:    e.Message,
			Type:       typ,
			Details:    details,
		},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From returns err as an AppError, wrapping unknown errors as Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
