package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TxKey contextKey = "db_tx"

// TxFromContext retrieves the active transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// WithTx begins a transaction on the tenant-scoped connection in ctx (or the
// given pool when no connection is pinned) and returns a derived context
// carrying the transaction. The caller owns Commit/Rollback.
func WithTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions) (context.Context, pgx.Tx, error) {
	var tx pgx.Tx
	var err error
	if conn := ConnFromContext(ctx); conn != nil {
		tx, err = conn.BeginTx(ctx, opts)
	} else {
		tx, err = pool.BeginTx(ctx, opts)
	}
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, TxKey, tx), tx, nil
}

// RunInTx executes fn inside a single transaction. The transaction is stored
// on the context passed to fn so repositories route their statements through
// it. Rolls back on error or panic, commits otherwise.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	txCtx, tx, err := WithTx(ctx, pool, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInSnapshot executes fn inside a read-only REPEATABLE READ transaction,
// giving all reads in fn one consistent snapshot.
func RunInSnapshot(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	return RunInTx(ctx, pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}
