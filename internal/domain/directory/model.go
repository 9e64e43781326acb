package directory

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the minimal demographic record the admission and visit flows
// need. Full demographics live in the upstream registration system.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MRN       string    `db:"mrn" json:"mrn"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Practitioner is a staff member who can be assigned to a visit.
type Practitioner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty string    `db:"specialty" json:"specialty,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
