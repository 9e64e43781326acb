package directory

import (
	"context"

	"github.com/google/uuid"
)

// Repository answers existence questions about patients and practitioners.
// Admission and visit services check referential integrity through it before
// writing rows that reference either table.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	PractitionerExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreatePatient(ctx context.Context, p *Patient) error
	CreatePractitioner(ctx context.Context, p *Practitioner) error
}
