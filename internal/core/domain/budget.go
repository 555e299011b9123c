package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Budget is one persisted budget snapshot.
//
// ID and CreatedAt are fixed at creation. Name, Timestamp, State and
// UpdatedAt are replaced wholesale by an update.
type Budget struct {
	// ID is a random UUID assigned by the store; never reused.
	ID string `json:"id"`

	// Name is the user-supplied label. Not unique.
	Name string `json:"name"`

	// Timestamp is the caller's ordering key (epoch-style, not validated).
	Timestamp int64 `json:"timestamp"`

	// State is the opaque application document.
	State State `json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the list view of a Budget; it never carries the state document.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBudget creates a Budget with a fresh ID and CreatedAt == UpdatedAt == now.
func NewBudget(name string, timestamp int64, state State, now time.Time) (*Budget, error) {
	id, err := GenerateBudgetID()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Budget{
		ID:        id,
		Name:      name,
		Timestamp: timestamp,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GenerateBudgetID returns a random (version 4) UUID string.
func GenerateBudgetID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return id.String(), nil
}

// IsValidBudgetID reports whether id is a well-formed UUID.
func IsValidBudgetID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Replace overwrites the mutable content and refreshes UpdatedAt.
// UpdatedAt never moves backwards, and never before CreatedAt, even when the
// wall clock does.
func (b *Budget) Replace(name string, timestamp int64, state State, now time.Time) {
	b.Name = name
	b.Timestamp = timestamp
	b.State = state

	now = now.UTC()
	if now.Before(b.UpdatedAt) {
		now = b.UpdatedAt
	}
	if now.Before(b.CreatedAt) {
		now = b.CreatedAt
	}
	b.UpdatedAt = now
}

// Summary returns the list view of b.
func (b *Budget) Summary() Summary {
	return Summary{
		ID:        b.ID,
		Name:      b.Name,
		Timestamp: b.Timestamp,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// Clone returns a copy of b. The State document is shared; it is immutable.
func (b *Budget) Clone() *Budget {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// lessSummary reports whether a is listed before b: larger Timestamp first,
// then later CreatedAt, then smaller ID.
func lessSummary(a, b Summary) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortSummaries sorts items into list order in place.
func SortSummaries(items []Summary) {
	sort.Slice(items, func(i, j int) bool {
		return lessSummary(items[i], items[j])
	})
}
