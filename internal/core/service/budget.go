package service

import (
	"context"
	"time"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

// BudgetRepository defines the storage interface for budget snapshots.
//
// Implementations run every call as one unit of work and keep no state
// between calls. Absent ids are reported as domain.ErrBudgetNotFound.
type BudgetRepository interface {
	// Insert stores a new snapshot. The id must not exist yet.
	Insert(ctx context.Context, budget *domain.Budget) error

	// Get retrieves a snapshot by exact id.
	Get(ctx context.Context, id string) (*domain.Budget, error)

	// Update loads the snapshot, applies mutate and stores the result in the
	// same unit of work. It returns the stored snapshot.
	Update(ctx context.Context, id string, mutate func(*domain.Budget)) (*domain.Budget, error)

	// Delete removes a snapshot permanently.
	Delete(ctx context.Context, id string) error

	// List returns every live snapshot in list order (see domain.SortSummaries).
	List(ctx context.Context) ([]domain.Summary, error)
}

// BudgetObserver receives lifecycle notifications. Implementations must be
// cheap and must not block.
type BudgetObserver interface {
	BudgetCreated()
	BudgetDeleted()
}

// BudgetService handles budget snapshot operations.
type BudgetService struct {
	repo     BudgetRepository
	now      func() time.Time
	observer BudgetObserver
}

// Option configures a BudgetService.
type Option func(*BudgetService)

// WithClock overrides the time source used for created_at / updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *BudgetService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a lifecycle observer (typically metrics).
func WithObserver(o BudgetObserver) Option {
	return func(s *BudgetService) {
		s.observer = o
	}
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(repo BudgetRepository, opts ...Option) *BudgetService {
	s := &BudgetService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Budget Create Operation
// ============================================================================

// CreateBudgetRequest contains parameters for snapshot creation.
type CreateBudgetRequest struct {
	Name      string
	Timestamp int64
	State     domain.State // Required; an explicit JSON null is accepted
}

// Create stores a new snapshot with a fresh id.
//
// The returned Budget carries the caller's State value, not a re-read copy.
func (s *BudgetService) Create(ctx context.Context, req *CreateBudgetRequest) (*domain.Budget, error) {
	if req == nil || req.State.IsZero() {
		return nil, domain.ErrMalformedInput.WithDetails("state is required")
	}

	budget, err := domain.NewBudget(req.Name, req.Timestamp, req.State, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, budget); err != nil {
		return nil, storageError(err)
	}

	if s.observer != nil {
		s.observer.BudgetCreated()
	}
	return budget, nil
}

// ============================================================================
// Budget Query Operations
// ============================================================================

// List returns summaries of all snapshots, newest timestamp first.
// The result is never nil.
func (s *BudgetService) List(ctx context.Context) ([]domain.Summary, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if items == nil {
		return []domain.Summary{}, nil
	}
	domain.SortSummaries(items)
	return items, nil
}

// Get retrieves a snapshot by id.
func (s *BudgetService) Get(ctx context.Context, id string) (*domain.Budget, error) {
	if !domain.IsValidBudgetID(id) {
		return nil, domain.ErrBudgetNotFound
	}

	budget, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return budget, nil
}

// ============================================================================
// Budget Update Operation
// ============================================================================

// UpdateBudgetRequest contains parameters for a wholesale snapshot update.
type UpdateBudgetRequest struct {
	ID        string
	Name      string
	Timestamp int64
	State     domain.State
}

// Update replaces name, timestamp and state of an existing snapshot.
// ID and CreatedAt are kept; UpdatedAt is refreshed and never moves backwards.
func (s *BudgetService) Update(ctx context.Context, req *UpdateBudgetRequest) (*domain.Budget, error) {
	if req == nil || !domain.IsValidBudgetID(req.ID) {
		return nil, domain.ErrBudgetNotFound
	}
	if req.State.IsZero() {
		return nil, domain.ErrMalformedInput.WithDetails("state is required")
	}

	now := s.now()
	budget, err := s.repo.Update(ctx, req.ID, func(b *domain.Budget) {
		b.Replace(req.Name, req.Timestamp, req.State, now)
	})
	if err != nil {
		return nil, storageError(err)
	}

	budget.State = req.State
	return budget, nil
}

// ============================================================================
// Budget Delete Operation
// ============================================================================

// Delete removes a snapshot permanently.
func (s *BudgetService) Delete(ctx context.Context, id string) error {
	if !domain.IsValidBudgetID(id) {
		return domain.ErrBudgetNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err)
	}

	if s.observer != nil {
		s.observer.BudgetDeleted()
	}
	return nil
}

// storageError passes domain errors through and classifies everything else
// as a durable layer failure.
func storageError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
