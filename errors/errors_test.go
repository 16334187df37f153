package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	if err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout); !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_Message(t *testing.T) {
	err := NotFound("User", 7)
	if err.Message != "User with ID 7 not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
}

func TestAppError_Internal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("db connection lost")
	err := Internal(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if strings.Contains(err.Message, "db connection") {
		t.Errorf("cause leaked into message: %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := Conflict("dup").WithDetails(map[string]any{"a": 1}).WithDetail("b", 2)
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := Unauthorized("")
	if got := err.Error(); got != "UNAUTHORIZED: Not authenticated" {
		t.Errorf("unexpected Error() %q", got)
	}
	err = DatabaseError(fmt.Errorf("boom"))
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Errorf("expected cause in Error(), got %q", err.Error())
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"ServiceUnavailable", ServiceUnavailable("database"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"Timeout", Timeout("hash"), ErrCodeTimeout, http.StatusGatewayTimeout},
		{"Conflict", Conflict("x"), ErrCodeConflict, http.StatusConflict},
		{"BadRequest", BadRequest(""), ErrCodeBadRequest, http.StatusBadRequest},
		{"PayloadTooLarge", PayloadTooLarge(10), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"Validation", Validation(nil), ErrCodeValidation, http.StatusUnprocessableEntity},
		{"Unauthorized", Unauthorized("x"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden},
		{"TokenExpired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError},
		{"DatabaseError", DatabaseError(nil), ErrCodeDatabaseError, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("code = %s, want %s", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("status = %d, want %d", tc.err.HTTPStatus, tc.status)
			}
			if tc.err.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestAppError_ToResponse_ClientError(t *testing.T) {
	resp := Validation([]FieldError{{Field: "body.email", Message: "invalid email", Type: "email"}}).ToResponse()

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	body := got["error"]
	if body["status_code"] != float64(422) {
		t.Errorf("status_code = %v", body["status_code"])
	}
	if body["type"] != TypeClientError {
		t.Errorf("type = %v", body["type"])
	}
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %v", body["details"])
	}
	list, ok := details["validation_errors"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one validation error, got %v", details["validation_errors"])
	}
	if _, ok := got["request_id"]; ok {
		t.Error("request_id should be omitted when empty")
	}
}

func TestAppError_ToResponse_ServerErrorOmitsDetails(t *testing.T) {
	resp := DatabaseError(fmt.Errorf("secret")).ToResponse()
	if resp.Error.Type != TypeServerError {
		t.Errorf("type = %q", resp.Error.Type)
	}
	if resp.Error.Details != nil {
		t.Errorf("expected no details, got %v", resp.Error.Details)
	}
	if resp.Error.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.Error.StatusCode)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Forbidden("no"))
	if !IsAppError(wrapped) {
		t.Fatal("expected IsAppError on wrapped error")
	}
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeForbidden {
		t.Errorf("AsAppError = %v, %v", appErr, ok)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not be an AppError")
	}
}

func TestFrom(t *testing.T) {
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
	plain := fmt.Errorf("plain")
	if got := From(plain); got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("From(plain) = %v", got)
	}
	nf := NotFound("Todo", 1)
	if got := From(nf); got != nf {
		t.Error("From should pass AppErrors through")
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestErrorCodeStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestRetryableCodes(t *testing.T) {
	for _, code := range []ErrorCode{ErrCodeServiceUnavailable, ErrCodeTimeout, ErrCodeDatabaseError} {
		if !IsRetryableCode(code) {
			t.Errorf("%s should be retryable", code)
		}
	}
	for _, code := range []ErrorCode{ErrCodeInternal, ErrCodeConflict, ErrCodeInvalidToken} {
		if IsRetryableCode(code) {
			t.Errorf("%s should not be retryable", code)
		}
	}
}
