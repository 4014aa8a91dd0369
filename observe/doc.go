// Package observe provides observability primitives for the gateway.
//
// It is a pure instrumentation library: a JSON logger with field redaction,
// OpenTelemetry tracer and meter setup, and HTTP server middleware. Consumers
// wire the observer into the gateway router and handler.
package observe
