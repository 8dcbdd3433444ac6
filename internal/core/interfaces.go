package core

import (
	"context"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// This file contains repository and adapter interface definitions (ports in
// hexagonal architecture). Service implementations depend on these interfaces,
// not on concrete implementations.

// JobRepository defines the interface for search job data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	// CreateCompleted inserts a job directly in the given non-pending status.
	// Used by imports, where leads arrive from outside rather than a scrape.
	CreateCompleted(ctx context.Context, req *model.CreateJobRequest, status model.JobStatus) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error)

	// ClaimNextPending reserves the oldest pending job for scraping and moves
	// it to scraping with a lease. Returns model.ErrNoJobsAvailable when the
	// queue is empty.
	ClaimNextPending(ctx context.Context, leaseSeconds int) (*model.Job, error)
	WaitForNotification(ctx context.Context) error

	// Transition performs a guarded status advance: the update only applies
	// while the job is still in from. Returns false when the guard misses.
	Transition(ctx context.Context, id string, from, to model.JobStatus) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	// TryCompleteContacting moves a contacting job to completed only when no
	// pending or in-flight messages remain for it.
	TryCompleteContacting(ctx context.Context, id string) (bool, error)

	RequestCancel(ctx context.Context, id string) (bool, error)
	IsCancelRequested(ctx context.Context, id string) (bool, error)
}

// JobMaintenanceRepository defines the interface for background job cleanup.
type JobMaintenanceRepository interface {
	// FailStaleScraping fails scraping jobs whose lease expired more than
	// grace ago. Processes up to batchSize jobs per call to keep locks short.
	FailStaleScraping(ctx context.Context, grace time.Duration, batchSize int) (int64, error)

	// CompleteOrphanedContacting completes contacting jobs older than minAge
	// with every message terminal. Covers a dispatcher that crashed after
	// resolving the last message but before the completion check.
	CompleteOrphanedContacting(ctx context.Context, minAge time.Duration, batchSize int) (int64, error)

	// DeleteOldJobs deletes terminal jobs older than maxAge along with their
	// leads and messages. Returns the number of jobs deleted.
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}

// DeleteOldJobsParams groups parameters for DeleteOldJobs to keep param count ≤3.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// LeadRepository defines the interface for scraped lead data operations.
type LeadRepository interface {
	// InsertBatch persists leads in order, silently skipping rows whose dedup
	// key already exists for the job. Returns the number actually inserted.
	InsertBatch(ctx context.Context, jobID string, leads []*model.Lead) (int, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Lead, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
	// ExistingKeys returns the dedup keys already stored for the job.
	ExistingKeys(ctx context.Context, jobID string) (map[string]struct{}, error)
}

// MessageRepository defines the interface for outreach message data operations.
type MessageRepository interface {
	EnqueueBatch(ctx context.Context, msgs []*model.EnqueueMessage) (int, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.OutreachMessage, error)
	StatsByJob(ctx context.Context, jobID string) (map[model.Channel]*model.MessageStats, error)

	// ClaimNext reserves the oldest due pending message on the channel and
	// moves it to sending. Returns model.ErrNoMessagesAvailable when none are
	// due.
	ClaimNext(ctx context.Context, channel model.Channel) (*model.OutreachMessage, error)
	WaitForNotification(ctx context.Context, channel model.Channel) error

	MarkSent(ctx context.Context, id string) (bool, error)
	// Reschedule returns a sending message to pending with the next attempt
	// due at notBefore.
	Reschedule(ctx context.Context, params RescheduleParams) (bool, error)
	MarkFailed(ctx context.Context, id, errMsg string) (bool, error)

	// RequeueStuckSending returns messages stuck in sending longer than
	// maxClaimAge to pending without consuming an attempt.
	RequeueStuckSending(ctx context.Context, maxClaimAge time.Duration, batchSize int) (int64, error)
}

// RescheduleParams groups parameters for MessageRepository.Reschedule.
type RescheduleParams struct {
	ID        string
	ErrorMsg  string
	NotBefore time.Time
}

// Scraper runs a search query against an upstream engine and returns raw
// records. Partial result sets are returned alongside the error that
// interrupted the scrape.
type Scraper interface {
	Run(ctx context.Context, req model.ScrapeRequest) (*model.ScrapeResult, error)
}

// ChannelSender delivers one rendered message over a single channel.
// Implementations classify failures as transient or permanent through the
// error codes in internal/errors.
type ChannelSender interface {
	Channel() model.Channel
	Send(ctx context.Context, msg *model.OutreachMessage) error
}

// KeyCache suppresses duplicate leads across jobs. A nil-safe no-op
// implementation is used when Redis is not configured.
type KeyCache interface {
	// Seen reports which of the given dedup keys were already recorded.
	Seen(ctx context.Context, keys []string) (map[string]bool, error)
	// Record remembers keys for the configured retention window.
	Record(ctx context.Context, keys []string) error
}

// RateLimiter gates external calls per named channel.
type RateLimiter interface {
	Acquire(ctx context.Context, channel string) error
	TryAcquire(channel string) bool
}
