package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wardflow/wardflow/internal/domain/bed"
	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/metrics"
)

// BedRegistry is the slice of the bed service the ledger needs: reserving on
// admit and releasing on discharge. Both must be called with the ledger's
// transaction context so the bed flip commits atomically with the ledger row.
type BedRegistry interface {
	Reserve(ctx context.Context, bedID, admissionID uuid.UUID) (*bed.Bed, error)
	Release(ctx context.Context, bedID uuid.UUID) (*bed.Bed, error)
}

// PatientDirectory answers whether a patient exists before an admission row
// references them.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type txRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AdmitRequest carries the fields of an admit call. IdempotencyKey comes from
// the Idempotency-Key header; retries with the same key return the original
// admission instead of creating a second one.
type AdmitRequest struct {
	PatientID      uuid.UUID
	BedID          uuid.UUID
	Reason         string
	IdempotencyKey string
}

type Service struct {
	repo      Repository
	beds      BedRegistry
	patients  PatientDirectory
	tx        txRunner
	collector *metrics.Collector
}

func NewService(repo Repository, beds BedRegistry, patients PatientDirectory, tx txRunner) *Service {
	return &Service{repo: repo, beds: beds, patients: patients, tx: tx}
}

// WithMetrics enables admission outcome counters.
func (s *Service) WithMetrics(c *metrics.Collector) *Service {
	s.collector = c
	return s
}

func (s *Service) countOutcome(outcome string) {
	if s.collector != nil {
		s.collector.AdmissionsTotal.WithLabelValues(outcome).Inc()
	}
}

// Admit creates an ADMITTED admission and reserves its bed in a single
// transaction. Either both rows change or neither does.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperror.Validation("patient_id is required")
	}
	if req.BedID == uuid.Nil {
		return nil, apperror.Validation("bed_id is required")
	}

	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("patient", req.PatientID)
	}

	var result *Admission
	err = s.tx.InTx(ctx, func(txCtx context.Context) error {
		if req.IdempotencyKey != "" {
			prev, err := s.repo.GetByIdempotencyKey(txCtx, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				result = prev
				return nil
			}
		}

		a := &Admission{
			ID:         uuid.New(),
			PatientID:  req.PatientID,
			BedID:      req.BedID,
			Status:     StatusAdmitted,
			Reason:     req.Reason,
			AdmittedAt: time.Now().UTC(),
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			a.IdempotencyKey = &key
		}

		if _, err := s.beds.Reserve(txCtx, req.BedID, a.ID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		// Two concurrent admits can share a key and both miss the in-tx
		// read; the loser trips the unique constraint. Replay the winner.
		if req.IdempotencyKey != "" && isIdempotencyKeyViolation(err) {
			prev, readErr := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if readErr == nil && prev != nil {
				return prev, nil
			}
		}
		if apperror.IsConflict(err) {
			s.countOutcome("conflict")
		}
		return nil, err
	}
	s.countOutcome("admitted")
	return result, nil
}

// uniqueViolation is the SQLSTATE Postgres raises for a unique constraint hit.
const uniqueViolation = "23505"

func isIdempotencyKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "admissions_idempotency_key_key"
}

// Discharge closes the admission and moves its bed to CLEANING, atomically.
// Discharging twice returns Conflict(ALREADY_DISCHARGED) and leaves the bed
// untouched.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*Admission, error) {
	var result *Admission
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.Discharge(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.beds.Release(txCtx, a.BedID); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.countOutcome("discharged")
	return result, nil
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActiveForBed returns the current ADMITTED admission occupying the bed.
func (s *Service) GetActiveForBed(ctx context.Context, bedID uuid.UUID) (*Admission, error) {
	return s.repo.GetActiveByBed(ctx, bedID)
}

func (s *Service) ListAdmissions(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error) {
	if f.Status != "" && f.Status != StatusAdmitted && f.Status != StatusDischarged {
		return nil, 0, apperror.Validation("invalid status: %s", f.Status)
	}
	return s.repo.List(ctx, f, limit, offset)
}
