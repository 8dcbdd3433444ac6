package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadgrid/leadgrid/internal/data/pgxutil"
	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// jobAddedChannel is the pg_notify channel scrape runners listen on.
const jobAddedChannel = "job_added"

// Create inserts a new pending job and notifies waiting scrape runners.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var job *model.Job
	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var insertErr error
			job, insertErr = r.insertJobInTx(ctx, tx, req, model.JobStatusPending)
			if insertErr != nil {
				return insertErr
			}
			if _, notifyErr := tx.Exec(ctx,
				`SELECT pg_notify($1::text, $2::text)`, jobAddedChannel, job.ID,
			); notifyErr != nil {
				return fmt.Errorf("send job notification: %w", notifyErr)
			}
			return nil
		},
	})
	if txErr != nil {
		return nil, txErr
	}
	return job, nil
}

// CreateCompleted inserts a job directly in the given non-pending status.
// Import flows use it to register jobs whose leads come from outside a scrape,
// so no runner notification is sent.
func (r *JobRepo) CreateCompleted(
	ctx context.Context,
	req *model.CreateJobRequest,
	status model.JobStatus,
) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if !status.Valid() || status == model.JobStatusPending {
		return nil, fmt.Errorf("invalid import job status: %s", status)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var job *model.Job
	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var insertErr error
			job, insertErr = r.insertJobInTx(ctx, tx, req, status)
			return insertErr
		},
	})
	if txErr != nil {
		return nil, txErr
	}
	return job, nil
}

func (r *JobRepo) insertJobInTx(
	ctx context.Context,
	tx pgx.Tx,
	req *model.CreateJobRequest,
	status model.JobStatus,
) (*model.Job, error) {
	now := r.timeProvider.Now().UTC()
	rows, err := tx.Query(ctx, `
      INSERT INTO jobs(query, result_limit, source, mode, message_type, message_template, owner, status, created_at, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
      RETURNING `+jobColumns,
		req.Query,
		req.ResultLimit,
		req.Source,
		req.Mode,
		req.MessageType,
		req.Template,
		req.Owner,
		status,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	job, collectErr := collectJobFromRows(rows)
	rows.Close()
	if collectErr != nil {
		return nil, fmt.Errorf("collect job: %w", collectErr)
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE id = $1
	`, id)

	job, err := scanJobFromRow(row)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs matching the given filters, newest first.
func (r *JobRepo) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	if opts == nil {
		opts = &model.JobListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	where := ""
	if opts.Status != nil {
		args = append(args, *opts.Status)
		where = ` WHERE status = $` + strconv.Itoa(len(args))
	}
	if opts.Owner != nil {
		args = append(args, *opts.Owner)
		clause := ` WHERE`
		if where != "" {
			clause = where + ` AND`
		}
		where = clause + ` owner = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, opts.Offset)
	query += where + fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, scanErr := scanJobFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list jobs: %w", rowsErr)
	}
	return jobs, nil
}

// Transition performs a guarded status advance. The update applies only while
// the job is still in from, so concurrent writers cannot double-advance or
// move a job backwards.
func (r *JobRepo) Transition(ctx context.Context, id string, from, to model.JobStatus) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := r.timeProvider.Now().UTC()
	var completedAt *time.Time
	if to.Terminal() {
		completedAt = &now
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $3,
		    completed_at = COALESCE($4, completed_at),
		    lease_expires_at = NULL,
		    updated_at = $5
		WHERE id = $1 AND status = $2
	`, id, from, to, completedAt, now)
	if err != nil {
		return false, fmt.Errorf("transition job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}
	return affected > 0, nil
}

// Fail marks a non-terminal job as failed with the given error message.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    last_error = $2,
		    completed_at = $3,
		    lease_expires_at = NULL,
		    updated_at = $3
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, errMsg, now)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("fail rows affected: %w", err)
	}
	return affected > 0, nil
}

// TryCompleteContacting moves a contacting job to completed only when none of
// its messages remain pending or claimed. Dispatch workers call this after
// every terminal message outcome; the NOT EXISTS guard makes the last one win.
func (r *JobRepo) TryCompleteContacting(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed',
		    completed_at = $2,
		    updated_at = $2
		WHERE id = $1
		  AND status = 'contacting'
		  AND NOT EXISTS (
		    SELECT 1 FROM outreach_messages
		    WHERE job_id = $1 AND status IN ('pending', 'sending')
		  )
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("complete contacting job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete rows affected: %w", err)
	}
	return affected > 0, nil
}

// RequestCancel flags a non-terminal job for cooperative cancellation.
// Workers observe the flag at their next safe checkpoint.
func (r *JobRepo) RequestCancel(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET cancel_requested = TRUE,
		    updated_at = $2
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsCancelRequested reports whether cancellation has been requested for the job.
func (r *JobRepo) IsCancelRequested(ctx context.Context, id string) (bool, error) {
	var requested bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT cancel_requested FROM jobs WHERE id = $1`, id,
	).Scan(&requested)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrJobNotFound
		}
		return false, fmt.Errorf("check cancel requested: %w", err)
	}
	return requested, nil
}
