// Package observability wires OpenTelemetry tracing and metrics for todoapi.
//
// When observability.enabled is false the global otel providers stay no-op,
// so instrumented code (auth gate spans, password hashing spans, the
// authentication failure counter) costs nothing. When enabled, the Component
// installs OTLP/HTTP exporters at startup and flushes them on shutdown.
package observability
