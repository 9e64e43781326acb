package visit

import (
	"context"

	"github.com/google/uuid"
)

// StatusUpdate carries the fields a transition may write alongside the new
// status. Diagnosis and notes are only meaningful on COMPLETED.
type StatusUpdate struct {
	Status    string
	Diagnosis string
	Notes     string
}

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)

	// List returns matching visits ordered by visit_date ascending.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error)

	// ListWaiting returns every WAITING visit ordered by visit_date
	// ascending, optionally scoped to one doctor. It feeds queue position
	// derivation and is meant to run in the same snapshot as List.
	ListWaiting(ctx context.Context, doctorID *uuid.UUID) ([]*Visit, error)

	// UpdateStatus applies upd conditional on the visit still holding
	// fromStatus, so concurrent transitions cannot double-apply.
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus string, upd StatusUpdate) (*Visit, error)
}
