package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// ProcessTimeHeader reports the handling time in milliseconds.
const ProcessTimeHeader = "X-Process-Time"

// timedWriter remembers the status and stamps ProcessTimeHeader at the
// moment headers go out, which is the last chance to set it.
type timedWriter struct {
	http.ResponseWriter
	begin  time.Time
	status int // zero until headers are sent
}

func (w *timedWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	elapsed := float64(time.Since(w.begin).Microseconds()) / 1000
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', 2, 64))
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

// Status is the code sent, or 200 when the handler wrote nothing.
func (w *timedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *timedWriter) Flush() {
	w.WriteHeader(http.StatusOK)
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *timedWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
