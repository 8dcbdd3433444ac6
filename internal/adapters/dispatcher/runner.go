// Package dispatcher runs the outreach dispatch workers: per-channel pools
// that drain the message queue through the dispatch service.
package dispatcher

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

const defaultPollInterval = 10 * time.Second

// RunnerOptions configures the dispatcher adapter.
type RunnerOptions struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Senders []core.ChannelSender
	Limiter core.RateLimiter

	WorkersPerChannel int           // goroutines per channel; defaults to 1
	PollInterval      time.Duration // fallback poll cadence when notifications miss
	BackoffBase       time.Duration
	BackoffCap        time.Duration

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo     core.JobRepository
	MessagesRepo core.MessageRepository
}

// Runner drains the outreach message queue across every configured channel.
type Runner struct {
	dispatch     *service.DispatchService
	logger       *slog.Logger
	workers      int
	pollInterval time.Duration
}

// NewRunner wires repositories and the dispatch service into a runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && (opts.JobsRepo == nil || opts.MessagesRepo == nil) {
		return nil, errors.New("either DB or all repositories must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.WorkersPerChannel
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
	messages := opts.MessagesRepo
	if messages == nil {
		messages = data.NewMessageRepo(opts.DB, data.MessageRepoConfig{
			RepoConfig: data.RepoConfig{Logger: logger},
		})
	}

	dispatch, err := service.NewDispatchService(service.DispatchServiceOptions{
		Jobs:        jobs,
		Messages:    messages,
		Senders:     opts.Senders,
		Limiter:     opts.Limiter,
		BackoffBase: opts.BackoffBase,
		BackoffCap:  opts.BackoffCap,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wire dispatch service: %w", err)
	}

	return &Runner{
		dispatch:     dispatch,
		logger:       logger.With("component", "dispatcher"),
		workers:      workers,
		pollInterval: pollInterval,
	}, nil
}

// Run starts a worker pool per channel and processes messages until the
// context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	channels := r.dispatch.Channels()
	r.logger.InfoContext(ctx, "starting dispatcher",
		"channels", channels,
		"workers_per_channel", r.workers,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	for _, channel := range channels {
		notify := make(chan struct{}, 1)
		go r.listenLoop(ctx, channel, notify)

		for range r.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.workerLoop(ctx, channel, notify); err != nil {
					select {
					case errCh <- err:
						cancel()
					default:
					}
				}
			}()
		}
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

// listenLoop forwards per-channel queue notifications to its workers.
func (r *Runner) listenLoop(ctx context.Context, channel model.Channel, notify chan<- struct{}) {
	for ctx.Err() == nil {
		err := r.dispatch.WaitForNotification(ctx, channel)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.WarnContext(ctx, "message notification listener error",
				"channel", channel, "error", err)
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

func (r *Runner) workerLoop(ctx context.Context, channel model.Channel, notify <-chan struct{}) error {
	for ctx.Err() == nil {
		err := r.dispatch.ProcessNext(ctx, channel)
		switch {
		case err == nil:
			// Drain: immediately try for the next message.
		case errors.Is(err, model.ErrNoMessagesAvailable):
			if !r.waitForWork(ctx, notify) {
				return nil
			}
		case errors.Is(err, context.Canceled):
			return nil
		default:
			// Individual message outcomes are already persisted; a processing
			// error here is logged and the worker keeps draining.
			r.logger.ErrorContext(ctx, "message processing error",
				"channel", channel, "error", err)
			if !r.waitForWork(ctx, notify) {
				return nil
			}
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
