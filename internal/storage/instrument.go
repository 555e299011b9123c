package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
	"github.com/abustosp/app-presupuesto/internal/telemetry/tracer"
)

// OpObserver records the outcome of one table operation.
type OpObserver interface {
	ObserveStoreOp(op string, elapsed time.Duration, err error)
}

// Instrument wraps t so every call is timed, reported to obs and traced.
// A nil obs only traces.
func Instrument(t Table, obs OpObserver) Table {
	return &instrumentedTable{next: t, obs: obs}
}

type instrumentedTable struct {
	next Table
	obs  OpObserver
}

func (i *instrumentedTable) observe(ctx context.Context, op, id string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{attribute.String("db.operation", op)}
	if id != "" {
		attrs = append(attrs, attribute.String("budget.id", id))
	}
	ctx, span := tracer.StartSpan(ctx, "storage."+op, attrs...)
	start := time.Now()

	return ctx, func(err error) {
		if i.obs != nil {
			i.obs.ObserveStoreOp(op, time.Since(start), err)
		}
		tracer.EndSpan(span, err)
	}
}

func (i *instrumentedTable) Insert(ctx context.Context, b *domain.Budget) (err error) {
	ctx, done := i.observe(ctx, "insert", b.ID)
	defer func() { done(err) }()
	return i.next.Insert(ctx, b)
}

func (i *instrumentedTable) Get(ctx context.Context, id string) (_ *domain.Budget, err error) {
	ctx, done := i.observe(ctx, "get", id)
	defer func() { done(err) }()
	return i.next.Get(ctx, id)
}

func (i *instrumentedTable) Update(ctx context.Context, id string, mutate func(*domain.Budget)) (_ *domain.Budget, err error) {
	ctx, done := i.observe(ctx, "update", id)
	defer func() { done(err) }()
	return i.next.Update(ctx, id, mutate)
}

func (i *instrumentedTable) Delete(ctx context.Context, id string) (err error) {
	ctx, done := i.observe(ctx, "delete", id)
	defer func() { done(err) }()
	return i.next.Delete(ctx, id)
}

func (i *instrumentedTable) List(ctx context.Context) (_ []domain.Summary, err error) {
	ctx, done := i.observe(ctx, "list", "")
	defer func() { done(err) }()
	return i.next.List(ctx)
}

func (i *instrumentedTable) Ping(ctx context.Context) (err error) {
	ctx, done := i.observe(ctx, "ping", "")
	defer func() { done(err) }()
	return i.next.Ping(ctx)
}

func (i *instrumentedTable) Close() error {
	return i.next.Close()
}
