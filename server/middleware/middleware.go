// Package middleware holds the net/http middleware that wraps the whole
// server, plus the gin handlers for authentication and metrics.
package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps an http.Handler. Server-wide concerns run at this level,
// outside gin, so they also see 404s and preflight requests.
type Middleware func(http.Handler) http.Handler

// Chain composes mws so the first one sees the request first.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}
