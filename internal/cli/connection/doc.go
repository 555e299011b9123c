// Package connection provides the HTTP client presupuesto-cli uses to talk
// to presupuesto-server.
//
// Error responses are decoded into *APIError so commands can report the
// server's code and detail, and callers can match with errors.As.
package connection
