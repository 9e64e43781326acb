package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const admissionCols = `id, patient_id, bed_id, status, reason, admitted_at, discharged_at, idempotency_key, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admissions (id, patient_id, bed_id, status, reason, admitted_at, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING admitted_at, created_at, updated_at`,
		a.ID, a.PatientID, a.BedID, a.Status, a.Reason, a.AdmittedAt, a.IdempotencyKey,
	)
	return row.Scan(&a.AdmittedAt, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("admission", id)
	}
	return a, err
}

func (r *repoPG) GetByIdempotencyKey(ctx context.Context, key string) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admissions WHERE idempotency_key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *repoPG) GetActiveByBed(ctx context.Context, bedID uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admissions WHERE bed_id = $1 AND status = $2`,
		bedID, StatusAdmitted))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("active admission for bed", bedID)
	}
	return a, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error) {
	where := ""
	args := []interface{}{}
	appendCond := func(cond string, val interface{}) {
		args = append(args, val)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if f.PatientID != nil {
		appendCond("patient_id = $%d", *f.PatientID)
	}
	if f.Status != "" {
		appendCond("status = $%d", f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+admissionCols+` FROM admissions%s ORDER BY admitted_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Discharge(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `
		UPDATE admissions
		SET status = $2, discharged_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+admissionCols,
		id, StatusDischarged, StatusAdmitted,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the conditional update: either no such admission or it is
		// already discharged.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperror.Conflict(apperror.CodeAlreadyDischarged,
			"admission %s is already %s", id, existing.Status)
	}
	return a, err
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.BedID, &a.Status, &a.Reason,
		&a.AdmittedAt, &a.DischargedAt, &a.IdempotencyKey, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
