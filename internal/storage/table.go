package storage

import (
	"context"
	"errors"
	"time"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
	"github.com/abustosp/app-presupuesto/internal/core/service"
)

// Common errors
var (
	// ErrRecordConflict is returned by Insert when the id already exists.
	ErrRecordConflict = errors.New("storage: record already exists")

	// ErrClosed is returned by calls on a closed table.
	ErrClosed = errors.New("storage: table closed")
)

// Table is a durable record table for budget snapshots.
type Table interface {
	service.BudgetRepository

	// Ping checks the durable layer is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}

// Record is the persisted layout of one snapshot. State holds the
// canonical JSON text of the document.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp int64     `json:"timestamp"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord converts a Budget into its persisted layout.
func NewRecord(b *domain.Budget) (Record, error) {
	text, err := b.State.Canonical()
	if err != nil {
		return Record{}, domain.ErrMalformedInput.WithDetails("state cannot be serialized").WithCause(err)
	}

	return Record{
		ID:        b.ID,
		Name:      b.Name,
		Timestamp: b.Timestamp,
		State:     text,
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	}, nil
}

// Budget decodes the record back into a domain entity.
func (r Record) Budget() (*domain.Budget, error) {
	st, err := domain.ParseState([]byte(r.State))
	if err != nil {
		return nil, domain.ErrStorageError.WithDetails("stored state is corrupt: " + r.ID).WithCause(err)
	}

	return &domain.Budget{
		ID:        r.ID,
		Name:      r.Name,
		Timestamp: r.Timestamp,
		State:     st,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

// Summary returns the list view of the record.
func (r Record) Summary() domain.Summary {
	return domain.Summary{
		ID:        r.ID,
		Name:      r.Name,
		Timestamp: r.Timestamp,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
