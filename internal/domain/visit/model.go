package visit

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusRegistered     = "REGISTERED"
	StatusWaiting        = "WAITING"
	StatusInConsultation = "IN_CONSULTATION"
	StatusCompleted      = "COMPLETED"
	StatusCancelled      = "CANCELLED"
)

const (
	TypeOPD       = "OPD"
	TypeIPD       = "IPD"
	TypeEmergency = "EMERGENCY"
	TypeFollowUp  = "FOLLOW_UP"
)

var validTypes = map[string]bool{
	TypeOPD:       true,
	TypeIPD:       true,
	TypeEmergency: true,
	TypeFollowUp:  true,
}

// transitions is the forward-only status machine. COMPLETED and CANCELLED
// are terminal, and only WAITING or IN_CONSULTATION visits can be cancelled.
var transitions = map[string][]string{
	StatusRegistered:     {StatusWaiting},
	StatusWaiting:        {StatusInConsultation, StatusCancelled},
	StatusInConsultation: {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Visit is one out-patient encounter. Position and EstimatedWaitMinutes are
// derived at read time from the WAITING queue ordering and never stored.
type Visit struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID       *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	VisitType      string     `db:"visit_type" json:"visit_type"`
	Status         string     `db:"status" json:"status"`
	ChiefComplaint string     `db:"chief_complaint" json:"chief_complaint,omitempty"`
	Diagnosis      string     `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	VisitDate      time.Time  `db:"visit_date" json:"visit_date"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	Position             int `db:"-" json:"position,omitempty"`
	EstimatedWaitMinutes int `db:"-" json:"estimated_wait_minutes"`
}

// Filter narrows List.
type Filter struct {
	Status    string
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}
