package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner bundles the pool-backed transaction helpers behind a value that
// services can accept as a small interface, keeping them testable without a
// database.
type Runner struct {
	Pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) Runner {
	return Runner{Pool: pool}
}

// InTx runs fn inside a read-write transaction.
func (r Runner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return RunInTx(ctx, r.Pool, pgx.TxOptions{}, fn)
}

// InSnapshot runs fn inside a read-only REPEATABLE READ transaction.
func (r Runner) InSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return RunInSnapshot(ctx, r.Pool, fn)
}
