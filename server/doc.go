// Package server provides the HTTP server: Gin behind h2c, wrapped in the
// server-wide middleware stack, with lifecycle management through
// component.Component.
//
// # Middleware
//
// Server-wide (server/middleware, net/http level, applied by New):
//
//   - Recovery: panic to 500 in the API error envelope
//   - RequestID: X-Request-ID propagation and generation
//   - RequestLogger: structured request logs and X-Process-Time
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body cap (413)
//
// Route-level (Gin):
//
//   - Auth: runs the authentication gate and stores the principal
//   - Metrics: request count and duration per route
//
// # Responses
//
// RespondWithError renders any error as
//
//	{"error":{"status_code":404,"message":"...","type":"client_error"},"request_id":"..."}
//
// and success helpers write the payload as the body.
package server
