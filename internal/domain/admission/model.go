package admission

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusAdmitted   = "ADMITTED"
	StatusDischarged = "DISCHARGED"
)

// Admission is one stay: a patient occupying a bed from admitted_at until
// discharged_at. Exactly one ADMITTED row may exist per bed at a time.
type Admission struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	BedID          uuid.UUID  `db:"bed_id" json:"bed_id"`
	Status         string     `db:"status" json:"status"`
	Reason         string     `db:"reason" json:"reason,omitempty"`
	AdmittedAt     time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt   *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	IdempotencyKey *string    `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Filter narrows ListAdmissions.
type Filter struct {
	PatientID *uuid.UUID
	Status    string
}
