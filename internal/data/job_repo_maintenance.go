package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data/pgxutil"
)

// Advisory lock keys so only one reaper instance sweeps at a time.
const (
	advisoryLockMajor                 int64 = 2001
	advisoryLockMinorStaleScrapes     int64 = 1
	advisoryLockMinorOldJobs          int64 = 2
	advisoryLockMinorOrphanContacting int64 = 3
)

// FailStaleScraping fails scraping jobs whose lease expired more than grace
// ago. A crashed runner cannot resume its job, so the job is terminally
// failed rather than requeued. Processes up to batchSize jobs per call.
func (r *JobRepo) FailStaleScraping(
	ctx context.Context,
	grace time.Duration,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var failed int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, lockErr := tryAdvisoryLock(ctx, tx, advisoryLockMinorStaleScrapes)
			if lockErr != nil {
				return lockErr
			}
			if !locked {
				return nil
			}

			now := r.timeProvider.Now().UTC()
			cutoff := now.Add(-grace)
			res, execErr := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'failed',
				    last_error = 'scrape worker lease expired',
				    completed_at = $1,
				    lease_expires_at = NULL,
				    updated_at = $1
				WHERE id IN (
				  SELECT id FROM jobs
				  WHERE status = 'scraping'
				    AND lease_expires_at IS NOT NULL
				    AND lease_expires_at < $2
				  ORDER BY lease_expires_at ASC
				  LIMIT $3
				  FOR UPDATE SKIP LOCKED
				)
			`, now, cutoff, batchSize)
			if execErr != nil {
				return fmt.Errorf("fail stale scraping jobs: %w", execErr)
			}
			ra, raErr := res.RowsAffected()
			if raErr != nil {
				return fmt.Errorf("rows affected: %w", raErr)
			}
			failed = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return failed, nil
}

// CompleteOrphanedContacting completes contacting jobs untouched for at
// least minAge whose messages are all terminal. A dispatcher that crashed
// between resolving its last message and the completion check leaves this
// state behind; untouched jobs with live messages are left for dispatch.
func (r *JobRepo) CompleteOrphanedContacting(
	ctx context.Context,
	minAge time.Duration,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var completed int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, lockErr := tryAdvisoryLock(ctx, tx, advisoryLockMinorOrphanContacting)
			if lockErr != nil {
				return lockErr
			}
			if !locked {
				return nil
			}

			now := r.timeProvider.Now().UTC()
			cutoff := now.Add(-minAge)
			res, execErr := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'completed',
				    completed_at = $1,
				    updated_at = $1
				WHERE id IN (
				  SELECT j.id FROM jobs j
				  WHERE j.status = 'contacting'
				    AND j.updated_at < $2
				    AND NOT EXISTS (
				      SELECT 1 FROM outreach_messages m
				      WHERE m.job_id = j.id AND m.status IN ('pending', 'sending')
				    )
				  ORDER BY j.updated_at ASC
				  LIMIT $3
				  FOR UPDATE SKIP LOCKED
				)
			`, now, cutoff, batchSize)
			if execErr != nil {
				return fmt.Errorf("complete orphaned contacting jobs: %w", execErr)
			}
			ra, raErr := res.RowsAffected()
			if raErr != nil {
				return fmt.Errorf("rows affected: %w", raErr)
			}
			completed = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

// DeleteOldJobs deletes terminal jobs older than MaxAge. Leads and messages
// go with them through ON DELETE CASCADE.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Terminal() {
		return 0, fmt.Errorf("delete old jobs: status %s is not terminal", params.Status)
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	var deleted int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			locked, lockErr := tryAdvisoryLock(ctx, tx, advisoryLockMinorOldJobs)
			if lockErr != nil {
				return lockErr
			}
			if !locked {
				return nil
			}

			cutoff := r.timeProvider.Now().UTC().Add(-params.MaxAge)
			res, execErr := tx.ExecContext(ctx, `
				DELETE FROM jobs
				WHERE id IN (
				  SELECT id FROM jobs
				  WHERE status = $1 AND completed_at IS NOT NULL AND completed_at < $2
				  ORDER BY completed_at ASC
				  LIMIT $3
				  FOR UPDATE SKIP LOCKED
				)
			`, params.Status, cutoff, batchSize)
			if execErr != nil {
				return fmt.Errorf("delete old jobs: %w", execErr)
			}
			ra, raErr := res.RowsAffected()
			if raErr != nil {
				return fmt.Errorf("rows affected: %w", raErr)
			}
			deleted = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func tryAdvisoryLock(ctx context.Context, tx *sql.Tx, minor int64) (bool, error) {
	var locked bool
	if err := tx.QueryRowContext(ctx,
		"SELECT pg_try_advisory_xact_lock($1::integer, $2::integer)",
		advisoryLockMajor, minor,
	).Scan(&locked); err != nil {
		return false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	return locked, nil
}
