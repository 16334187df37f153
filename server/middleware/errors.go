package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
)

// WriteError renders err in the API error envelope. Non-AppErrors become a
// generic 500; the request id, when known, is echoed in the body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.From(err)
	resp := appErr.ToResponse()
	resp.RequestID = requestIDOf(r)

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if resp.Error.StatusCode == http.StatusUnauthorized {
		h.Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(resp.Error.StatusCode)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logger.WithContext(r.Context()).Error("Failed to write error response", logger.Fields(
			logger.FieldError, encErr.Error(),
		))
	}
}

func requestIDOf(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(RequestIDHeader)
}
