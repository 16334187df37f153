// Package logger provides structured logging for todoapi built on zerolog.
//
// A Logger carries a service name and optional component tag. Request-scoped
// values (request id, user id) are attached to a context with
// ContextWithRequestID / ContextWithUserID and picked up by WithContext.
//
//	log := logger.New(&cfg, "todoapi").WithComponent("auth")
//	log.WithContext(ctx).Warn("Authentication failed", logger.Fields("reason", "expired"))
//
// Never pass tokens, passwords, or key material as field values.
package logger
