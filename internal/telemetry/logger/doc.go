// Package logger configures structured logging for presupuesto.
//
//   - logger.go: slog handler construction and the dynamic level
//   - context.go: request-scoped loggers carrying the request id
//   - redact.go: masking of secrets and DSN credentials
package logger
