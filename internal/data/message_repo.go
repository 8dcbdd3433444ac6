package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data/pgxutil"
	"github.com/leadgrid/leadgrid/internal/domain/model"
)

const defaultMaxAttempts = 3

// MessageRepo provides database operations for the outreach message queue.
type MessageRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
	maxAttempts  int
}

// MessageRepoConfig holds configuration options for the message repository.
type MessageRepoConfig struct {
	RepoConfig
	MaxAttempts int
}

// NewMessageRepo creates a MessageRepo over the given database handle.
func NewMessageRepo(db *sql.DB, cfg MessageRepoConfig) *MessageRepo {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &MessageRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
		maxAttempts:  maxAttempts,
	}
}

const messageColumns = `
  id,
  job_id,
  lead_id,
  channel,
  recipient,
  body,
  status,
  attempt_count,
  max_attempts,
  scheduled_at,
  claimed_at,
  sent_at,
  error,
  created_at,
  updated_at
`

func messageAddedChannel(ch model.Channel) string {
	return "message_added_" + string(ch)
}

// EnqueueBatch inserts messages as pending and notifies the channel's
// dispatch workers. Invalid entries fail the whole batch before anything is
// written.
func (r *MessageRepo) EnqueueBatch(ctx context.Context, msgs []*model.EnqueueMessage) (int, error) {
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return 0, fmt.Errorf("enqueue message for job %s: %w", m.JobID, err)
		}
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	inserted := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now().UTC()
			notified := make(map[model.Channel]bool)
			for _, m := range msgs {
				if _, execErr := tx.Exec(ctx, `
					INSERT INTO outreach_messages(job_id, lead_id, channel, recipient, body,
					                              status, max_attempts, scheduled_at, created_at, updated_at)
					VALUES ($1,$2,$3,$4,$5,'pending',$6,$7,$7,$7)
				`, m.JobID, m.LeadID, m.Channel, m.Recipient, m.Body, r.maxAttempts, now); execErr != nil {
					return fmt.Errorf("insert message: %w", execErr)
				}
				inserted++
				notified[m.Channel] = true
			}
			for ch := range notified {
				if _, notifyErr := tx.Exec(ctx,
					`SELECT pg_notify($1::text, $2::text)`, messageAddedChannel(ch), msgs[0].JobID,
				); notifyErr != nil {
					return fmt.Errorf("send message notification: %w", notifyErr)
				}
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// SQL used by ClaimNext to atomically reserve the next due message.
const claimNextMessageSQL = `
  WITH cte AS (
    SELECT id FROM outreach_messages
    WHERE channel = $1 AND status = 'pending' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE outreach_messages m
  SET
    status = 'sending',
    claimed_at = $2,
    attempt_count = m.attempt_count + 1,
    updated_at = $2
  FROM cte
  WHERE m.id = cte.id
  RETURNING m.id, m.job_id, m.lead_id, m.channel, m.recipient, m.body, m.status,
            m.attempt_count, m.max_attempts, m.scheduled_at, m.claimed_at,
            m.sent_at, m.error, m.created_at, m.updated_at`

// ClaimNext reserves the oldest due pending message on the channel, moving it
// to sending and consuming an attempt. FOR UPDATE SKIP LOCKED guarantees each
// message is handed to exactly one worker. Returns
// model.ErrNoMessagesAvailable when nothing is due.
func (r *MessageRepo) ClaimNext(ctx context.Context, channel model.Channel) (*model.OutreachMessage, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("invalid channel: %s", channel)
	}

	var msg *model.OutreachMessage
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now().UTC()
			rows, qerr := tx.Query(ctx, claimNextMessageSQL, channel, now)
			if qerr != nil {
				return fmt.Errorf("claim message: %w", qerr)
			}
			defer rows.Close()

			if !rows.Next() {
				if rowsErr := rows.Err(); rowsErr != nil {
					return fmt.Errorf("claim message: %w", rowsErr)
				}
				return model.ErrNoMessagesAvailable
			}
			m, scanErr := scanMessageFromRow(rows)
			if scanErr != nil {
				return fmt.Errorf("scan claimed message: %w", scanErr)
			}
			msg = m
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoMessagesAvailable) {
			return nil, model.ErrNoMessagesAvailable
		}
		return nil, err
	}
	return msg, nil
}

// WaitForNotification blocks until a new message is announced for the channel
// or ctx is done.
func (r *MessageRepo) WaitForNotification(ctx context.Context, channel model.Channel) error {
	return waitForPgNotification(ctx, r.DB, messageAddedChannel(channel))
}

// MarkSent records a successful delivery for a claimed message.
func (r *MessageRepo) MarkSent(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE outreach_messages
		SET status = 'sent',
		    sent_at = $2,
		    claimed_at = NULL,
		    error = NULL,
		    updated_at = $2
		WHERE id = $1 AND status = 'sending'
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("mark message sent: %w", err)
	}
	return oneRowAffected(res)
}

// Reschedule returns a claimed message to pending with its next attempt due
// at NotBefore. Used after a transient failure with attempts remaining.
func (r *MessageRepo) Reschedule(ctx context.Context, params core.RescheduleParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE outreach_messages
		SET status = 'pending',
		    scheduled_at = $2,
		    claimed_at = NULL,
		    error = $3,
		    updated_at = $4
		WHERE id = $1 AND status = 'sending'
	`, params.ID, params.NotBefore.UTC(), params.ErrorMsg, now)
	if err != nil {
		return false, fmt.Errorf("reschedule message: %w", err)
	}
	return oneRowAffected(res)
}

// MarkFailed terminally fails a claimed message.
func (r *MessageRepo) MarkFailed(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE outreach_messages
		SET status = 'failed',
		    claimed_at = NULL,
		    error = $2,
		    updated_at = $3
		WHERE id = $1 AND status = 'sending'
	`, id, errMsg, now)
	if err != nil {
		return false, fmt.Errorf("mark message failed: %w", err)
	}
	return oneRowAffected(res)
}

// RequeueStuckSending returns messages stuck in sending longer than
// maxClaimAge to pending. The consumed attempt is refunded since the outcome
// of the interrupted send is unknown and the worker that claimed it is gone.
func (r *MessageRepo) RequeueStuckSending(
	ctx context.Context,
	maxClaimAge time.Duration,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	now := r.timeProvider.Now().UTC()
	cutoff := now.Add(-maxClaimAge)
	res, err := r.DB.ExecContext(ctx, `
		UPDATE outreach_messages
		SET status = 'pending',
		    attempt_count = greatest(attempt_count - 1, 0),
		    claimed_at = NULL,
		    scheduled_at = $1,
		    updated_at = $1
		WHERE id IN (
		  SELECT id FROM outreach_messages
		  WHERE status = 'sending' AND claimed_at IS NOT NULL AND claimed_at < $2
		  ORDER BY claimed_at ASC
		  LIMIT $3
		  FOR UPDATE SKIP LOCKED
		)
	`, now, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("requeue stuck messages: %w", err)
	}
	ra, raErr := res.RowsAffected()
	if raErr != nil {
		return 0, fmt.Errorf("rows affected: %w", raErr)
	}
	return ra, nil
}

// ListByJob returns the job's messages oldest first.
func (r *MessageRepo) ListByJob(ctx context.Context, jobID string) ([]*model.OutreachMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM outreach_messages
		WHERE job_id = $1
		ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*model.OutreachMessage
	for rows.Next() {
		m, scanErr := scanMessageFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan message: %w", scanErr)
		}
		msgs = append(msgs, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list messages: %w", rowsErr)
	}
	return msgs, nil
}

// StatsByJob returns per-channel delivery counts for the job. Claimed but
// unresolved messages count as pending.
func (r *MessageRepo) StatsByJob(ctx context.Context, jobID string) (map[model.Channel]*model.MessageStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT channel,
		       count(*) FILTER (WHERE status = 'sent')                  AS sent,
		       count(*) FILTER (WHERE status = 'failed')                AS failed,
		       count(*) FILTER (WHERE status IN ('pending', 'sending')) AS pending
		FROM outreach_messages
		WHERE job_id = $1
		GROUP BY channel
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("message stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[model.Channel]*model.MessageStats)
	for rows.Next() {
		var ch model.Channel
		s := &model.MessageStats{}
		if scanErr := rows.Scan(&ch, &s.Sent, &s.Failed, &s.Pending); scanErr != nil {
			return nil, fmt.Errorf("scan message stats: %w", scanErr)
		}
		stats[ch] = s
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("message stats: %w", rowsErr)
	}
	return stats, nil
}

type messageRowScanner interface {
	Scan(dest ...any) error
}

func scanMessageFromRow(scanner messageRowScanner) (*model.OutreachMessage, error) {
	m := &model.OutreachMessage{}
	var (
		leadID, errMsg    sql.NullString
		claimedAt, sentAt sql.NullTime
	)
	if err := scanner.Scan(
		&m.ID,
		&m.JobID,
		&leadID,
		&m.Channel,
		&m.Recipient,
		&m.Body,
		&m.Status,
		&m.AttemptCount,
		&m.MaxAttempts,
		&m.ScheduledAt,
		&claimedAt,
		&sentAt,
		&errMsg,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.LeadID = cloneNullableString(leadID)
	m.Error = cloneNullableString(errMsg)
	m.ClaimedAt = cloneNullableTime(claimedAt)
	m.SentAt = cloneNullableTime(sentAt)
	return m, nil
}

func oneRowAffected(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
