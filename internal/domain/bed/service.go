package bed

import (
	"context"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperror"
)

// Service is the bed registry: the single owner of bed status transitions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateBed provisions a new bed. Beds start AVAILABLE and are never deleted.
func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	if b.WardName == "" {
		return apperror.Validation("ward_name is required")
	}
	if b.RoomNumber == "" {
		return apperror.Validation("room_number is required")
	}
	if b.BedNumber == "" {
		return apperror.Validation("bed_number is required")
	}
	if b.BedType == "" {
		b.BedType = TypeGeneral
	}
	if !validTypes[b.BedType] {
		return apperror.Validation("invalid bed_type: %s", b.BedType)
	}
	b.Status = StatusAvailable
	b.CurrentAdmissionID = nil
	return s.repo.Create(ctx, b)
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBeds returns beds ordered by (ward, room, bed number).
func (s *Service) ListBeds(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Reserve flips the bed AVAILABLE -> OCCUPIED for the given admission.
// Callers running a multi-write operation must invoke this inside their
// transaction so the flip commits or rolls back with their own rows.
func (s *Service) Reserve(ctx context.Context, bedID, admissionID uuid.UUID) (*Bed, error) {
	if admissionID == uuid.Nil {
		return nil, apperror.Validation("admission_id is required")
	}
	return s.repo.Reserve(ctx, bedID, admissionID)
}

// Release flips OCCUPIED -> CLEANING. Discharge never makes a bed AVAILABLE
// directly; turnover completion is a separate explicit step.
func (s *Service) Release(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	return s.repo.Release(ctx, bedID)
}

// CompleteTurnover flips CLEANING -> AVAILABLE after the bed has been prepped.
func (s *Service) CompleteTurnover(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	return s.repo.CompleteTurnover(ctx, bedID)
}

// SetMaintenance moves a bed in or out of MAINTENANCE. Only AVAILABLE beds
// can enter maintenance; the admission flow never touches this state.
func (s *Service) SetMaintenance(ctx context.Context, bedID uuid.UUID, on bool) (*Bed, error) {
	return s.repo.SetMaintenance(ctx, bedID, on)
}
