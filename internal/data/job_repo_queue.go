package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leadgrid/leadgrid/internal/data/pgxutil"
	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// SQL used by ClaimNextPending to atomically reserve the next job.
const claimNextUpdateSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE status = 'pending'
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'scraping',
    started_at = COALESCE(j.started_at, $1),
    lease_expires_at = $2,
    updated_at = $1
  FROM cte
  WHERE j.id = cte.id
  RETURNING ` + jobColumns2

// jobColumns qualified for the claim UPDATE's RETURNING clause.
const jobColumns2 = `
  j.id, j.query, j.result_limit, j.source, j.mode, j.message_type,
  j.message_template, j.owner, j.status, j.last_error, j.cancel_requested,
  j.lease_expires_at, j.started_at, j.completed_at, j.created_at, j.updated_at`

// ClaimNextPending reserves the oldest pending job for scraping, moving it to
// scraping with a lease. FOR UPDATE SKIP LOCKED guarantees each job is handed
// to exactly one runner. Returns model.ErrNoJobsAvailable when the queue is
// empty.
func (r *JobRepo) ClaimNextPending(ctx context.Context, leaseSeconds int) (*model.Job, error) {
	if leaseSeconds <= 0 {
		return nil, errors.New("leaseSeconds must be positive")
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now().UTC()
			leaseExpiresAt := now.Add(time.Duration(leaseSeconds) * time.Second)

			rows, qerr := tx.Query(ctx, claimNextUpdateSQL, now, leaseExpiresAt)
			if qerr != nil {
				return fmt.Errorf("claim job: %w", qerr)
			}
			defer rows.Close()

			j, cerr := collectJobFromRows(rows)
			if errors.Is(cerr, pgx.ErrNoRows) {
				return model.ErrNoJobsAvailable
			}
			if cerr != nil {
				return fmt.Errorf("claim job: %w", cerr)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, err
	}
	return job, nil
}

// WaitForNotification blocks until a new job is announced on the job_added
// channel or ctx is done.
func (r *JobRepo) WaitForNotification(ctx context.Context) error {
	return waitForPgNotification(ctx, r.DB, jobAddedChannel)
}

// waitForPgNotification LISTENs on channel using a dedicated pooled
// connection and blocks for one notification.
func waitForPgNotification(ctx context.Context, db *sql.DB, channel string) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	quoted := pgx.Identifier{channel}.Sanitize()
	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return fmt.Errorf("listen %s: %w", channel, execErr)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "UNLISTEN "+quoted)
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		return notifyErr
	})
}
