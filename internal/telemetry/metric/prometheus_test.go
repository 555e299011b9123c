package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}

	// Independent registries must not collide on registration.
	if NewRegistry() == nil {
		t.Error("second NewRegistry() returned nil")
	}
}

func TestHandler_DefaultCollectors(t *testing.T) {
	body := scrape(t, NewRegistry())

	for _, want := range []string{"go_goroutines", "process_", "presupuesto_build_info"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in exposition", want)
		}
	}
}

func TestObserveHTTP(t *testing.T) {
	r := NewRegistry()

	r.ObserveHTTP("GET", "GET /api/budgets", 200, 5*time.Millisecond)
	r.ObserveHTTP("GET", "GET /api/budgets", 200, 10*time.Millisecond)
	r.ObserveHTTP("POST", "POST /api/budgets", 422, time.Millisecond)

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "GET /api/budgets", "200")); got != 2 {
		t.Errorf("requests_total GET 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("POST", "POST /api/budgets", "422")); got != 1 {
		t.Errorf("requests_total POST 422 = %v, want 1", got)
	}

	body := scrape(t, r)
	if !strings.Contains(body, "presupuesto_http_request_duration_seconds_bucket") {
		t.Error("expected presupuesto_http_request_duration_seconds_bucket")
	}
}

func TestObserveStoreOp(t *testing.T) {
	r := NewRegistry()

	r.ObserveStoreOp("get", time.Millisecond, nil)
	r.ObserveStoreOp("get", time.Millisecond, domain.ErrBudgetNotFound)
	r.ObserveStoreOp("insert", time.Millisecond, errors.New("disk full"))

	tests := []struct {
		op, result string
		want       float64
	}{
		{"get", ResultOK, 1},
		{"get", ResultNotFound, 1},
		{"insert", ResultError, 1},
		{"insert", ResultOK, 0},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(r.StoreOpsTotal.WithLabelValues(tt.op, tt.result)); got != tt.want {
			t.Errorf("store_operations_total{%s,%s} = %v, want %v", tt.op, tt.result, got, tt.want)
		}
	}
}

func TestBudgetLifecycle(t *testing.T) {
	r := NewRegistry()

	r.BudgetCreated()
	r.BudgetCreated()
	r.BudgetDeleted()

	body := scrape(t, r)
	if !strings.Contains(body, "presupuesto_budgets_created_total 2") {
		t.Error("expected presupuesto_budgets_created_total 2")
	}
	if !strings.Contains(body, "presupuesto_budgets_deleted_total 1") {
		t.Error("expected presupuesto_budgets_deleted_total 1")
	}
}

func TestBuildInfoCollector(t *testing.T) {
	c := NewBuildInfoCollector()
	if n := testutil.CollectAndCount(c); n != 1 {
		t.Errorf("CollectAndCount() = %d, want 1", n)
	}
}
