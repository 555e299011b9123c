package metric

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

const namespace = "presupuesto"

// Store operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Storage metrics
	StoreOpsTotal   *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec

	// Budget metrics
	BudgetsCreated prometheus.Counter
	BudgetsDeleted prometheus.Counter
}

// NewRegistry creates a registry with all metric families and the Go,
// process and build info collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		StoreOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Durable table operations by operation and result.",
		}, []string{"op", "result"}),

		StoreOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Durable table operation latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),

		BudgetsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "budgets",
			Name:      "created_total",
			Help:      "Budget snapshots created.",
		}),

		BudgetsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "budgets",
			Name:      "deleted_total",
			Help:      "Budget snapshots deleted.",
		}),
	}

	r.registry.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.StoreOpsTotal,
		r.StoreOpDuration,
		r.BudgetsCreated,
		r.BudgetsDeleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewBuildInfoCollector(),
	)

	return r
}

// Registerer exposes the underlying registry for components that own
// their own metrics (e.g. the badger table).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStoreOp records one table operation.
func (r *Registry) ObserveStoreOp(op string, elapsed time.Duration, err error) {
	r.StoreOpsTotal.WithLabelValues(op, resultOf(err)).Inc()
	r.StoreOpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// BudgetCreated implements service.BudgetObserver.
func (r *Registry) BudgetCreated() {
	r.BudgetsCreated.Inc()
}

// BudgetDeleted implements service.BudgetObserver.
func (r *Registry) BudgetDeleted() {
	r.BudgetsDeleted.Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrBudgetNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}
