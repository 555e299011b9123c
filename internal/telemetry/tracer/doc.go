// Package tracer provides OpenTelemetry tracing for the budget service.
//
// Tracing is opt-in. When disabled, Setup installs nothing and StartSpan
// yields non-recording spans from the global no-op provider.
package tracer
