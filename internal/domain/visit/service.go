package visit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/metrics"
)

// Directory validates the people a visit references.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	PractitionerExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type snapshotRunner interface {
	InSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// RegisterRequest carries the fields of a visit registration.
type RegisterRequest struct {
	PatientID      uuid.UUID
	DoctorID       *uuid.UUID
	VisitType      string
	ChiefComplaint string
}

// TransitionRequest moves a visit along the status machine. Diagnosis and
// notes are recorded when the move completes the consultation.
type TransitionRequest struct {
	Status    string
	Diagnosis string
	Notes     string
}

type Service struct {
	repo        Repository
	directory   Directory
	snap        snapshotRunner
	slotMinutes int
	collector   *metrics.Collector
}

func NewService(repo Repository, directory Directory, snap snapshotRunner, slotMinutes int) *Service {
	return &Service{repo: repo, directory: directory, snap: snap, slotMinutes: slotMinutes}
}

// WithMetrics enables visit status counters.
func (s *Service) WithMetrics(c *metrics.Collector) *Service {
	s.collector = c
	return s
}

func (s *Service) countStatus(status string) {
	if s.collector != nil {
		s.collector.VisitsTotal.WithLabelValues(status).Inc()
	}
}

// Register creates a WAITING visit dated now. Out-patient visits hold no
// physical resource, so there is no exclusivity check.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Visit, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperror.Validation("patient_id is required")
	}
	if req.VisitType == "" {
		req.VisitType = TypeOPD
	}
	if !validTypes[req.VisitType] {
		return nil, apperror.Validation("invalid visit_type: %s", req.VisitType)
	}

	exists, err := s.directory.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("patient", req.PatientID)
	}
	if req.DoctorID != nil {
		exists, err := s.directory.PractitionerExists(ctx, *req.DoctorID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperror.NotFound("practitioner", *req.DoctorID)
		}
	}

	v := &Visit{
		ID:             uuid.New(),
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		VisitType:      req.VisitType,
		Status:         StatusWaiting,
		ChiefComplaint: req.ChiefComplaint,
		VisitDate:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.countStatus(v.Status)
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns visits with queue position and wait estimate derived from one
// consistent snapshot. Position is the 1-based rank among WAITING visits
// ordered by visit_date, scoped to the filter's doctor when one is given;
// the estimate is (position-1) * slot length. Non-WAITING visits get zero.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	var (
		visits []*Visit
		total  int
	)
	err := s.snap.InSnapshot(ctx, func(snapCtx context.Context) error {
		var err error
		visits, total, err = s.repo.List(snapCtx, f, limit, offset)
		if err != nil {
			return err
		}
		waiting, err := s.repo.ListWaiting(snapCtx, f.DoctorID)
		if err != nil {
			return err
		}

		rank := make(map[uuid.UUID]int, len(waiting))
		for i, w := range waiting {
			rank[w.ID] = i + 1
		}
		for _, v := range visits {
			if pos, ok := rank[v.ID]; ok && v.Status == StatusWaiting {
				v.Position = pos
				v.EstimatedWaitMinutes = (pos - 1) * s.slotMinutes
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

// Transition moves the visit forward along the status machine. Illegal moves,
// including anything out of COMPLETED or CANCELLED, fail with
// INVALID_TRANSITION.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*Visit, error) {
	if _, known := transitions[req.Status]; !known {
		return nil, apperror.Validation("invalid status: %s", req.Status)
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(v.Status, req.Status) {
		return nil, apperror.InvalidTransition(v.Status, req.Status)
	}

	upd := StatusUpdate{Status: req.Status}
	if req.Status == StatusCompleted {
		upd.Diagnosis = req.Diagnosis
		upd.Notes = req.Notes
	}
	updated, err := s.repo.UpdateStatus(ctx, id, v.Status, upd)
	if err != nil {
		return nil, err
	}
	s.countStatus(updated.Status)
	return updated, nil
}
