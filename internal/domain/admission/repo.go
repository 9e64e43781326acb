package admission

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the admission ledger. Rows are never deleted; discharge
// is a status flip recorded with its timestamp.
type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)

	// GetByIdempotencyKey returns the admission previously created with the
	// key, or nil when the key has not been seen.
	GetByIdempotencyKey(ctx context.Context, key string) (*Admission, error)

	// GetActiveByBed returns the ADMITTED admission for the bed, or NotFound.
	GetActiveByBed(ctx context.Context, bedID uuid.UUID) (*Admission, error)

	List(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error)

	// Discharge flips ADMITTED -> DISCHARGED and stamps discharged_at. It is
	// conditional on the current status: a second call returns
	// Conflict(ALREADY_DISCHARGED).
	Discharge(ctx context.Context, id uuid.UUID) (*Admission, error)
}
