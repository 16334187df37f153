package middleware

import (
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/kbukum/todoapi/logger"
)

// RequestLogger writes one line per request and stamps X-Process-Time.
// Requests to quiet paths, such as health probes, are served unlogged.
func RequestLogger(log *logger.Logger, quiet ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timedWriter{ResponseWriter: w, begin: time.Now()}
			next.ServeHTTP(tw, r)
			if slices.Contains(quiet, r.URL.Path) {
				return
			}

			status := tw.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldDuration, float64(time.Since(tw.begin).Microseconds())/1000,
				"client_ip", remoteHost(r),
				"user_agent", r.UserAgent(),
			)
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}

			l := log.WithContext(r.Context())
			switch {
			case status >= http.StatusInternalServerError:
				l.Error("Request completed", fields)
			case status >= http.StatusBadRequest:
				l.Warn("Request completed", fields)
			default:
				l.Info("Request completed", fields)
			}
		})
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
