// Package endpoint provides the service's operational HTTP handlers:
// aggregated health (database round trip plus component health) and a
// dependency-free liveness probe.
package endpoint
