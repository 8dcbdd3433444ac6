package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs     core.JobRepository     // Required: job repository
	Leads    core.LeadRepository    // Required: lead repository
	Messages core.MessageRepository // Required: message repository
	Logger   *slog.Logger           // Optional: structured logger
}

// JobService provides business logic for search job operations: submission,
// status projection, cancellation, and detail reads.
type JobService struct {
	jobs     core.JobRepository
	leads    core.LeadRepository
	messages core.MessageRepository
	logger   *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Leads == nil {
		return nil, errors.New("LeadRepository is required")
	}
	if opts.Messages == nil {
		return nil, errors.New("MessageRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		jobs:     opts.Jobs,
		leads:    opts.Leads,
		messages: opts.Messages,
		logger:   logger,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Create validates and persists a new job. The job is accepted as pending;
// scraping happens asynchronously.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job created",
			"id", job.ID,
			"mode", job.Mode,
			"message_type", job.MessageType,
			"limit", job.ResultLimit,
		)
	}
	return job, nil
}

// GetByID returns a job by its ID.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// List returns jobs matching the given filters, newest first.
func (s *JobService) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	jobs, err := s.jobs.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	return jobs, nil
}

// StatusView assembles the poller-facing status projection for a job. Reading
// never mutates state; two concurrent polls see the same view.
func (s *JobService) StatusView(ctx context.Context, id string) (*model.JobStatusView, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resultsCount, err := s.leads.CountByJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count leads for job %s: %w", id, err)
	}

	var stats model.MessageStats
	perChannel, err := s.messages.StatsByJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("message stats for job %s: %w", id, err)
	}
	for _, chStats := range perChannel {
		stats.Sent += chStats.Sent
		stats.Failed += chStats.Failed
		stats.Pending += chStats.Pending
	}

	view := &model.JobStatusView{
		ID:            job.ID,
		Status:        job.Status,
		LastError:     job.LastError,
		CreatedAt:     job.CreatedAt,
		ResultsCount:  resultsCount,
		MessagesCount: stats.Total(),
		MessageStats:  stats,
	}
	view.Project()
	return view, nil
}

// JobDetail bundles a job with its leads and messages.
type JobDetail struct {
	Job      *model.Job               `json:"job"`
	Leads    []*model.Lead            `json:"results"`
	Messages []*model.OutreachMessage `json:"messages"`
}

// Detail returns the job with its full result set and message log.
func (s *JobService) Detail(ctx context.Context, id string) (*JobDetail, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	leads, err := s.leads.ListByJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list leads for job %s: %w", id, err)
	}
	msgs, err := s.messages.ListByJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list messages for job %s: %w", id, err)
	}

	if leads == nil {
		leads = []*model.Lead{}
	}
	if msgs == nil {
		msgs = []*model.OutreachMessage{}
	}
	return &JobDetail{Job: job, Leads: leads, Messages: msgs}, nil
}

// Cancel requests cooperative cancellation of a job. Terminal jobs cannot be
// canceled; in-flight work stops at the worker's next checkpoint.
func (s *JobService) Cancel(ctx context.Context, id string) error {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return apperrors.Conflict(fmt.Sprintf("job %s is already %s", id, job.Status))
	}

	flagged, err := s.jobs.RequestCancel(ctx, id)
	if err != nil {
		return fmt.Errorf("request cancel for job %s: %w", id, err)
	}
	if !flagged {
		// The job reached a terminal status between the read and the update.
		return apperrors.Conflict(fmt.Sprintf("job %s already finished", id))
	}

	// Pending jobs have no worker to observe the flag, so fail them here.
	if job.Status == model.JobStatusPending {
		if _, failErr := s.jobs.Fail(ctx, id, "canceled by user"); failErr != nil {
			return fmt.Errorf("fail canceled job %s: %w", id, failErr)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job cancellation requested", "id", id, "status", job.Status)
	}
	return nil
}
