// Package reaper adapts the reaper service onto a database connection.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadgrid/leadgrid/config"
	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/service"
)

// RunnerOptions configures the reaper adapter.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ReaperConfig
	Logger *slog.Logger

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo     core.JobMaintenanceRepository
	MessagesRepo core.MessageRepository
}

// Runner periodically sweeps stale leases, stuck claims and old jobs.
type Runner struct {
	svc *service.ReaperService
}

// NewRunner wires repositories and constructs a reaper runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && (opts.JobsRepo == nil || opts.MessagesRepo == nil) {
		return nil, errors.New("either DB or all repositories must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
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

	svc, err := service.NewReaperService(service.ReaperServiceOptions{
		Jobs:     jobs,
		Messages: messages,
		Config:   opts.Config,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}
	return &Runner{svc: svc}, nil
}

// Run delegates to the reaper service until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	return r.svc.Run(ctx)
}
