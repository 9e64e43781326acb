package directory

import (
	"context"

	"github.com/wardflow/wardflow/internal/platform/apperror"
)

// Service maintains the patient and practitioner directory the ward flows
// reference. Records are create-only; corrections happen upstream.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterPatient adds a patient record. The MRN is the upstream identity
// and must be unique per tenant.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if p.MRN == "" {
		return apperror.Validation("mrn is required")
	}
	if p.FullName == "" {
		return apperror.Validation("full_name is required")
	}
	return s.repo.CreatePatient(ctx, p)
}

// RegisterPractitioner adds a staff member who can be assigned to visits.
func (s *Service) RegisterPractitioner(ctx context.Context, p *Practitioner) error {
	if p.FullName == "" {
		return apperror.Validation("full_name is required")
	}
	return s.repo.CreatePractitioner(ctx, p)
}
