package bed

import (
	"time"

	"github.com/google/uuid"
)

// Bed types.
const (
	TypeGeneral     = "GENERAL"
	TypeICU         = "ICU"
	TypePrivate     = "PRIVATE"
	TypeSemiPrivate = "SEMIPRIVATE"
	TypeMaternity   = "MATERNITY"
)

// Bed statuses. AVAILABLE -> OCCUPIED -> CLEANING -> AVAILABLE is the
// admission cycle; MAINTENANCE is entered and left only by provisioning.
const (
	StatusAvailable   = "AVAILABLE"
	StatusOccupied    = "OCCUPIED"
	StatusCleaning    = "CLEANING"
	StatusMaintenance = "MAINTENANCE"
)

var validTypes = map[string]bool{
	TypeGeneral:     true,
	TypeICU:         true,
	TypePrivate:     true,
	TypeSemiPrivate: true,
	TypeMaternity:   true,
}

// Bed maps to the beds table. CurrentAdmissionID is set exactly when the bed
// is OCCUPIED.
type Bed struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	WardName           string     `db:"ward_name" json:"ward_name"`
	RoomNumber         string     `db:"room_number" json:"room_number"`
	BedNumber          string     `db:"bed_number" json:"bed_number"`
	BedType            string     `db:"bed_type" json:"bed_type"`
	Status             string     `db:"status" json:"status"`
	CurrentAdmissionID *uuid.UUID `db:"current_admission_id" json:"current_admission_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Filter narrows ListBeds results.
type Filter struct {
	Ward   string
	Status string
}
