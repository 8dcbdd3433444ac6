package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadgrid/leadgrid/config"
	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Jobs     core.JobMaintenanceRepository // Required: job cleanup repository
	Messages core.MessageRepository        // Required: message repository
	Config   config.ReaperConfig           // Required: reaper configuration
	Logger   *slog.Logger                  // Optional: structured logger
}

// ReaperService sweeps up after crashed workers and old data.
//
// This service manages:
// - Requeueing messages stuck in sending after a dispatcher crash.
// - Failing scraping jobs whose lease expired.
// - Completing contacting jobs orphaned with only terminal messages.
// - Deleting old terminal jobs to prevent database bloat.
type ReaperService struct {
	jobs     core.JobMaintenanceRepository
	messages core.MessageRepository
	config   config.ReaperConfig
	logger   *slog.Logger
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobMaintenanceRepository is required")
	}
	if opts.Messages == nil {
		return nil, errors.New("MessageRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"scrape_lease_grace", opts.Config.ScrapeLeaseGrace,
			"sending_max_claim_age", opts.Config.SendingMaxClaimAge,
		)
	}

	return &ReaperService{
		jobs:     opts.Jobs,
		messages: opts.Messages,
		config:   opts.Config,
		logger:   logger,
	}, nil
}

// MustNewReaperService constructs a new ReaperService and panics on error.
func MustNewReaperService(opts ReaperServiceOptions) *ReaperService {
	svc, err := NewReaperService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ReaperService: %v", err))
	}
	return svc
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Jitter so multiple instances started together do not sweep in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.runSweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.runSweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// waitWithJitter delays up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)))

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

type sweepStep struct {
	fn    func(context.Context) (int64, error)
	label string
}

// runSweep performs all cleanup operations, continuing past individual failures.
func (s *ReaperService) runSweep(ctx context.Context) error {
	steps := []sweepStep{
		{fn: s.requeueStuckMessages, label: "requeue stuck messages"},
		{fn: s.failStaleScrapes, label: "fail stale scrapes"},
		{fn: s.completeOrphanedContacting, label: "complete orphaned contacting jobs"},
		{fn: s.deleteOldJobs(model.JobStatusCompleted, s.config.CompletedMaxAge), label: "delete old completed jobs"},
		{fn: s.deleteOldJobs(model.JobStatusFailed, s.config.FailedMaxAge), label: "delete old failed jobs"},
	}

	var errs []error
	for _, step := range steps {
		count, err := step.fn(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			if isContextCancellation(err) {
				break
			}
			continue
		}
		if count > 0 && s.logger != nil {
			s.logger.InfoContext(ctx, step.label, "count", count)
		}
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("sweep failed: %w", joined)
	}
	return nil
}

// requeueStuckMessages returns messages abandoned mid-send to the queue.
// Loops until a batch comes back empty to drain large backlogs.
func (s *ReaperService) requeueStuckMessages(ctx context.Context) (int64, error) {
	var total int64
	for {
		count, err := s.messages.RequeueStuckSending(ctx, s.config.SendingMaxClaimAge, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
	return total, nil
}

// failStaleScrapes fails scraping jobs whose lease expired past the grace
// window. The scrape cannot be resumed by another worker, so the job ends
// failed instead of being requeued.
func (s *ReaperService) failStaleScrapes(ctx context.Context) (int64, error) {
	var total int64
	for {
		count, err := s.jobs.FailStaleScraping(ctx, s.config.ScrapeLeaseGrace, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
	return total, nil
}

// completeOrphanedContacting finishes contacting jobs whose dispatcher died
// after the last terminal message outcome but before the completion check.
func (s *ReaperService) completeOrphanedContacting(ctx context.Context) (int64, error) {
	var total int64
	for {
		count, err := s.jobs.CompleteOrphanedContacting(ctx, s.config.ContactingOrphanAge, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
	return total, nil
}

func (s *ReaperService) deleteOldJobs(status model.JobStatus, maxAge time.Duration) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		var total int64
		for {
			count, err := s.jobs.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
				Status:    status,
				MaxAge:    maxAge,
				BatchSize: s.config.BatchSize,
			})
			if err != nil {
				return total, err
			}
			total += count
			if count == 0 {
				break
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
		}
		return total, nil
	}
}

func (s *ReaperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
