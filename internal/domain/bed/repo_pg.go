package bed

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

const bedCols = `id, ward_name, room_number, bed_number, bed_type, status, current_admission_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO beds (id, ward_name, room_number, bed_number, bed_type, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.WardName, b.RoomNumber, b.BedNumber, b.BedType, b.Status,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM beds WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("bed", id)
	}
	return b, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if f.Ward != "" {
		args = append(args, f.Ward)
		where += fmt.Sprintf(" AND ward_name = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM beds`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM beds`+where+
			fmt.Sprintf(` ORDER BY ward_name, room_number, bed_number LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}

// transition performs a conditional status flip in one statement. The UPDATE
// only matches when the bed is in fromStatus, so two racing callers cannot
// both succeed: inside a transaction the loser blocks on the winner's row
// lock and then matches zero rows.
func (r *repoPG) transition(ctx context.Context, bedID uuid.UUID, fromStatus string, set string, conflictCode string, args ...interface{}) (*Bed, error) {
	all := append([]interface{}{bedID, fromStatus}, args...)
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`UPDATE beds SET `+set+`, updated_at = NOW() WHERE id = $1 AND status = $2 RETURNING `+bedCols,
		all...))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row matched: either the bed is missing or in the wrong state.
	existing, getErr := r.GetByID(ctx, bedID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperror.Conflict(conflictCode, "bed %s is %s", bedID, existing.Status)
}

func (r *repoPG) Reserve(ctx context.Context, bedID, admissionID uuid.UUID) (*Bed, error) {
	return r.transition(ctx, bedID, StatusAvailable,
		`status = '`+StatusOccupied+`', current_admission_id = $3`,
		apperror.CodeBedUnavailable, admissionID)
}

func (r *repoPG) Release(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	return r.transition(ctx, bedID, StatusOccupied,
		`status = '`+StatusCleaning+`', current_admission_id = NULL`,
		apperror.CodeInvalidState)
}

func (r *repoPG) CompleteTurnover(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	return r.transition(ctx, bedID, StatusCleaning,
		`status = '`+StatusAvailable+`'`,
		apperror.CodeInvalidState)
}

func (r *repoPG) SetMaintenance(ctx context.Context, bedID uuid.UUID, on bool) (*Bed, error) {
	if on {
		return r.transition(ctx, bedID, StatusAvailable,
			`status = '`+StatusMaintenance+`'`,
			apperror.CodeInvalidState)
	}
	return r.transition(ctx, bedID, StatusMaintenance,
		`status = '`+StatusAvailable+`'`,
		apperror.CodeInvalidState)
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(
		&b.ID, &b.WardName, &b.RoomNumber, &b.BedNumber, &b.BedType,
		&b.Status, &b.CurrentAdmissionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
