// Package metric provides Prometheus metrics for the budget service.
//
//   - prometheus.go: registry, metric families and the /metrics handler
//   - collector.go: build information collector
//
// Metrics include HTTP request counts and latencies by route pattern,
// store operation counts and latencies, and budget lifecycle counters.
package metric
