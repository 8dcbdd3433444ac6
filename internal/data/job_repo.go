package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// RepoConfig holds shared configuration options for repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) timeProvider() TimeProvider {
	if c.TimeProvider == nil {
		return &RealTimeProvider{}
	}
	return c.TimeProvider
}

// JobRepo provides database operations for search job management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a JobRepo over the given database handle.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	return &JobRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  query,
  result_limit,
  source,
  mode,
  message_type,
  message_template,
  owner,
  status,
  last_error,
  cancel_requested,
  lease_expires_at,
  started_at,
  completed_at,
  created_at,
  updated_at
`

type jobRowScanner interface {
	Scan(dest ...any) error
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var (
		owner, lastError                       sql.NullString
		leaseExpiresAt, startedAt, completedAt sql.NullTime
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Query,
		&job.ResultLimit,
		&job.Source,
		&job.Mode,
		&job.MessageType,
		&job.Template,
		&owner,
		&job.Status,
		&lastError,
		&job.CancelRequested,
		&leaseExpiresAt,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job.Owner = cloneNullableString(owner)
	job.LastError = cloneNullableString(lastError)
	job.LeaseExpiresAt = cloneNullableTime(leaseExpiresAt)
	job.StartedAt = cloneNullableTime(startedAt)
	job.CompletedAt = cloneNullableTime(completedAt)
	return job, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
