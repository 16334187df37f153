// Package errors provides the unified application error type for todoapi.
// Every handler failure is an *AppError carrying a machine-readable code, an
// HTTP status and a client-safe message; ToResponse renders the JSON error
// envelope returned by the API.
package errors
