// Package pgxutil bridges a *sql.DB backed by the pgx stdlib driver to raw
// pgx connections, for the few operations that need pgx-native features
// (LISTEN/NOTIFY, pgx transactions).
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// SQLTxConfig groups parameters for WithSQLTx.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	Fn   func(*sql.Tx) error
}

// TxConfig groups parameters for WithPgxTx.
type TxConfig struct {
	Opts *sql.TxOptions
	Fn   func(pgx.Tx) error
}

// WithSQLTx runs fn within a database/sql transaction, committing on success
// and rolling back on error.
func WithSQLTx(ctx context.Context, db *sql.DB, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// WithPgxConn acquires a raw *pgx.Conn through the stdlib bridge and executes
// fn with it. The pooled connection is returned when fn completes.
func WithPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		return fn(std.Conn())
	})
}

// WithPgxTx runs fn within a pgx transaction over the stdlib bridge.
func WithPgxTx(ctx context.Context, db *sql.DB, cfg TxConfig) error {
	return WithPgxConn(ctx, db, func(pgxConn *pgx.Conn) error {
		tx, err := pgxConn.BeginTx(ctx, toPgxTxOptions(cfg.Opts))
		if err != nil {
			return fmt.Errorf("begin pgx tx: %w", err)
		}
		defer func() {
			if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
				_ = rerr
			}
		}()
		if fnErr := cfg.Fn(tx); fnErr != nil {
			return fnErr
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return fmt.Errorf("commit pgx tx: %w", commitErr)
		}
		return nil
	})
}

func toPgxTxOptions(opts *sql.TxOptions) pgx.TxOptions {
	var pgxOpts pgx.TxOptions
	if opts == nil {
		return pgxOpts
	}
	switch opts.Isolation {
	case sql.LevelSerializable, sql.LevelLinearizable:
		pgxOpts.IsoLevel = pgx.Serializable
	case sql.LevelRepeatableRead, sql.LevelSnapshot:
		pgxOpts.IsoLevel = pgx.RepeatableRead
	case sql.LevelReadCommitted, sql.LevelWriteCommitted:
		pgxOpts.IsoLevel = pgx.ReadCommitted
	case sql.LevelReadUncommitted:
		pgxOpts.IsoLevel = pgx.ReadUncommitted
	default:
		// server default
	}
	if opts.ReadOnly {
		pgxOpts.AccessMode = pgx.ReadOnly
	} else {
		pgxOpts.AccessMode = pgx.ReadWrite
	}
	return pgxOpts
}
