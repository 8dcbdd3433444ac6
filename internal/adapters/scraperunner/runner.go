// Package scraperunner runs the scrape phase workers: it claims pending jobs
// and drives them through the scrape service.
package scraperunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	"github.com/leadgrid/leadgrid/internal/service"
)

const defaultPollInterval = 15 * time.Second

// RunnerOptions configures the scrape runner adapter.
type RunnerOptions struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Scraper core.Scraper
	Limiter core.RateLimiter

	Lease        time.Duration // per-job lease duration; defaults to 120s
	Concurrency  int           // number of worker goroutines; defaults to 1
	PollInterval time.Duration // fallback poll cadence when notifications miss

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo     core.JobRepository
	LeadsRepo    core.LeadRepository
	MessagesRepo core.MessageRepository
	KeyCache     core.KeyCache
}

// Runner claims pending jobs and executes their scrape phase.
type Runner struct {
	jobs         core.JobRepository
	scrape       *service.ScrapeService
	logger       *slog.Logger
	lease        time.Duration
	workers      int
	pollInterval time.Duration
}

// NewRunner wires repositories and services and constructs a scrape runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && (opts.JobsRepo == nil || opts.LeadsRepo == nil || opts.MessagesRepo == nil) {
		return nil, errors.New("either DB or all repositories must be provided")
	}
	if opts.Scraper == nil {
		return nil, errors.New("scraper is required")
	}
	if opts.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lease := opts.Lease
	if lease <= 0 {
		lease = 120 * time.Second
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	jobs := opts.JobsRepo
	if jobs == nil {
		jobs = data.NewJobRepo(opts.DB, data.RepoConfig{Logger: logger})
	}
	leads := opts.LeadsRepo
	if leads == nil {
		leads = data.NewLeadRepo(opts.DB, data.RepoConfig{Logger: logger})
	}
	messages := opts.MessagesRepo
	if messages == nil {
		messages = data.NewMessageRepo(opts.DB, data.MessageRepoConfig{
			RepoConfig: data.RepoConfig{Logger: logger},
		})
	}

	scrape, err := service.NewScrapeService(service.ScrapeServiceOptions{
		Jobs:     jobs,
		Leads:    leads,
		Messages: messages,
		Scraper:  opts.Scraper,
		Limiter:  opts.Limiter,
		KeyCache: opts.KeyCache,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wire scrape service: %w", err)
	}

	return &Runner{
		jobs:         jobs,
		scrape:       scrape,
		logger:       logger.With("component", "scrape_runner"),
		lease:        lease,
		workers:      workers,
		pollInterval: pollInterval,
	}, nil
}

// Run starts worker goroutines and processes jobs until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scrape runner", "workers", r.workers, "lease", r.lease)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notify := make(chan struct{}, 1)
	go r.listenLoop(ctx, notify)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx, notify); err != nil {
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	}
}

// listenLoop forwards database notifications to the workers. Errors back off
// briefly; the workers still make progress through their poll fallback.
func (r *Runner) listenLoop(ctx context.Context, notify chan<- struct{}) {
	for ctx.Err() == nil {
		err := r.jobs.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.WarnContext(ctx, "job notification listener error", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (r *Runner) workerLoop(ctx context.Context, notify <-chan struct{}) error {
	leaseSeconds := int(r.lease / time.Second)
	for ctx.Err() == nil {
		job, err := r.jobs.ClaimNextPending(ctx, leaseSeconds)
		switch {
		case err == nil:
			r.processJob(ctx, job)
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !r.waitForWork(ctx, notify) {
				return nil
			}
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("claim next pending: %w", err)
		}
	}
	return nil
}

func (r *Runner) waitForWork(ctx context.Context, notify <-chan struct{}) bool {
	timer := time.NewTimer(r.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-notify:
		return true
	case <-timer.C:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	r.logger.InfoContext(ctx, "scrape job claimed", "job_id", job.ID, "query", job.Query)
	if err := r.scrape.Process(ctx, job); err != nil {
		r.logger.ErrorContext(ctx, "scrape job processing error", "job_id", job.ID, "error", err)
	}
}
