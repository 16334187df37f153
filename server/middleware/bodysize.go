package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/todoapi/errors"
)

// BodySizeLimit caps request bodies at limit bytes. A declared
// Content-Length over the cap is refused with 413 before the handler runs;
// a chunked body fails on read with *http.MaxBytesError.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				WriteError(w, r, apperrors.PayloadTooLarge(limit))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
