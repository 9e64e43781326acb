package visit

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

const visitCols = `id, patient_id, doctor_id, visit_type, status, chief_complaint, diagnosis, notes, visit_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visits (id, patient_id, doctor_id, visit_type, status, chief_complaint, visit_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING visit_date, created_at, updated_at`,
		v.ID, v.PatientID, v.DoctorID, v.VisitType, v.Status, v.ChiefComplaint, v.VisitDate,
	)
	return row.Scan(&v.VisitDate, &v.CreatedAt, &v.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("visit", id)
	}
	return v, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
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
	if f.Status != "" {
		appendCond("status = $%d", f.Status)
	}
	if f.PatientID != nil {
		appendCond("patient_id = $%d", *f.PatientID)
	}
	if f.DoctorID != nil {
		appendCond("doctor_id = $%d", *f.DoctorID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visits`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+visitCols+` FROM visits%s ORDER BY visit_date ASC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectVisits(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repoPG) ListWaiting(ctx context.Context, doctorID *uuid.UUID) ([]*Visit, error) {
	query := `SELECT ` + visitCols + ` FROM visits WHERE status = $1`
	args := []interface{}{StatusWaiting}
	if doctorID != nil {
		query += ` AND doctor_id = $2`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY visit_date ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus string, upd StatusUpdate) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, `
		UPDATE visits
		SET status = $3,
		    diagnosis = CASE WHEN $4 <> '' THEN $4 ELSE diagnosis END,
		    notes = CASE WHEN $5 <> '' THEN $5 ELSE notes END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+visitCols,
		id, fromStatus, upd.Status, upd.Diagnosis, upd.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the conditional update: report against the fresh status.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperror.InvalidTransition(existing.Status, upd.Status)
	}
	return v, err
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.DoctorID, &v.VisitType, &v.Status,
		&v.ChiefComplaint, &v.Diagnosis, &v.Notes, &v.VisitDate, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var out []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
