package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// LeadRepo provides database operations for persisted leads.
type LeadRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewLeadRepo creates a LeadRepo over the given database handle.
func NewLeadRepo(db *sql.DB, cfg RepoConfig) *LeadRepo {
	return &LeadRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const leadColumns = `
  id,
  job_id,
  position,
  name,
  website,
  email,
  phone,
  address,
  reviews_count,
  reviews_average,
  place_type,
  opening_hours,
  source,
  dedup_key,
  created_at
`

// InsertBatch persists leads in their given order, assigning each its ID and
// timestamps. Rows whose dedup key already exists for the job are skipped, so
// a retried scrape cannot double-insert. Returns the number actually stored.
func (r *LeadRepo) InsertBatch(ctx context.Context, jobID string, leads []*model.Lead) (int, error) {
	if jobID == "" {
		return 0, errors.New("job id is required")
	}

	inserted := 0
	for _, lead := range leads {
		row := r.DB.QueryRowContext(ctx, `
			INSERT INTO leads(job_id, position, name, website, email, phone, address,
			                  reviews_count, reviews_average, place_type, opening_hours,
			                  source, dedup_key, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (job_id, dedup_key) DO NOTHING
			RETURNING id, created_at
		`,
			jobID,
			lead.Position,
			lead.Name,
			lead.Website,
			lead.Email,
			lead.Phone,
			lead.Address,
			lead.ReviewsCount,
			lead.ReviewsAverage,
			lead.PlaceType,
			lead.OpeningHours,
			lead.Source,
			lead.DedupKey,
			r.timeProvider.Now().UTC(),
		)

		err := row.Scan(&lead.ID, &lead.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict with an existing key; the lead was stored by an
			// earlier attempt.
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert lead %q: %w", lead.Name, err)
		}
		lead.JobID = jobID
		inserted++
	}
	return inserted, nil
}

// ListByJob returns the job's leads in scrape order.
func (r *LeadRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE job_id = $1
		ORDER BY position ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []*model.Lead
	for rows.Next() {
		lead := &model.Lead{}
		if scanErr := rows.Scan(
			&lead.ID,
			&lead.JobID,
			&lead.Position,
			&lead.Name,
			&lead.Website,
			&lead.Email,
			&lead.Phone,
			&lead.Address,
			&lead.ReviewsCount,
			&lead.ReviewsAverage,
			&lead.PlaceType,
			&lead.OpeningHours,
			&lead.Source,
			&lead.DedupKey,
			&lead.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan lead: %w", scanErr)
		}
		leads = append(leads, lead)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list leads: %w", rowsErr)
	}
	return leads, nil
}

// CountByJob returns the number of leads stored for the job.
func (r *LeadRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM leads WHERE job_id = $1`, jobID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return count, nil
}

// ExistingKeys returns the dedup keys already stored for the job.
func (r *LeadRepo) ExistingKeys(ctx context.Context, jobID string) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT dedup_key FROM leads WHERE job_id = $1`, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dedup keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if scanErr := rows.Scan(&key); scanErr != nil {
			return nil, fmt.Errorf("scan dedup key: %w", scanErr)
		}
		keys[key] = struct{}{}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list dedup keys: %w", rowsErr)
	}
	return keys, nil
}
