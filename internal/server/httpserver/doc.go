// Package httpserver provides the HTTP/HTTPS server for presupuesto.
//
// This package serves the budget API using stdlib net/http:
//
//   - Budget endpoints: /api/budgets, /api/budgets/{id}
//   - Health endpoints: /api/health, /api/ready
//   - Prometheus endpoint: /metrics
//
// Every request passes Recover, RequestID, RateLimit and CORS; matched
// routes then pass Metrics, Tracing and Audit.
package httpserver
