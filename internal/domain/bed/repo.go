package bed

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the bed store. The three transition methods are atomic
// check-and-set operations: each succeeds only when the bed is in the
// expected source state, and reports a typed conflict otherwise. Reserve is
// the single contended operation; two callers racing for one bed must see
// exactly one winner.
type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error)

	// Reserve flips AVAILABLE -> OCCUPIED and records the admission.
	Reserve(ctx context.Context, bedID, admissionID uuid.UUID) (*Bed, error)
	// Release flips OCCUPIED -> CLEANING and clears the admission reference.
	Release(ctx context.Context, bedID uuid.UUID) (*Bed, error)
	// CompleteTurnover flips CLEANING -> AVAILABLE.
	CompleteTurnover(ctx context.Context, bedID uuid.UUID) (*Bed, error)
	// SetMaintenance flips AVAILABLE <-> MAINTENANCE.
	SetMaintenance(ctx context.Context, bedID uuid.UUID, on bool) (*Bed, error)
}
