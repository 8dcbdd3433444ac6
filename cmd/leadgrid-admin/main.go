// Command leadgrid-admin provides operational tooling: migrations, job
// inspection, cancellation and suppression-cache maintenance.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/leadgrid/leadgrid/config"
	"github.com/leadgrid/leadgrid/internal/bootstrap"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/domain/model"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultMigrationTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"list-jobs": {
			name:        "list-jobs",
			description: "List jobs, optionally filtered by status",
			run:         runListJobs,
		},
		"show-job": {
			name:        "show-job",
			description: "Print one job with its message statistics as JSON",
			run:         runShowJob,
		},
		"cancel-job": {
			name:        "cancel-job",
			description: "Request cancellation of a running job",
			run:         runCancelJob,
		},
		"clear-seen-keys": {
			name:        "clear-seen-keys",
			description: "Clear the cross-job contacted-lead cache in Redis",
			run:         runClearSeenKeys,
		},
	}
}

func printUsage() {
	fmt.Fprintf(os.Stdout, "Usage: leadgrid-admin <command> [flags]\n\n")
	fmt.Fprintf(os.Stdout, "Available commands:\n")
	for _, c := range commands() {
		fmt.Fprintf(os.Stdout, "  %-18s %s\n", c.name, c.description)
	}
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list-jobs", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status (pending, scraping, ...)")
	owner := fs.String("owner", "", "filter by owner")
	limit := fs.Int("limit", 50, "maximum number of jobs to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	opts := &model.JobListOptions{Limit: *limit}
	if *status != "" {
		st := model.JobStatus(*status)
		if !st.Valid() {
			return fmt.Errorf("invalid status %q", *status)
		}
		opts.Status = &st
	}
	if *owner != "" {
		opts.Owner = owner
	}

	repo := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})
	jobs, err := repo.List(cmdCtx.Ctx, opts)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tMODE\tQUERY\tCREATED")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.ID, job.Status, job.Mode, job.Query, job.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runShowJob(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("show-job", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	jobID, err := jobIDArg(fs.Args())
	if err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	jobs := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})
	job, err := jobs.GetByID(cmdCtx.Ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	messages := data.NewMessageRepo(db, data.MessageRepoConfig{
		RepoConfig: data.RepoConfig{Logger: cmdCtx.Logger},
	})
	stats, err := messages.StatsByJob(cmdCtx.Ctx, jobID)
	if err != nil {
		return fmt.Errorf("message stats: %w", err)
	}

	out := map[string]any{"job": job, "message_stats": stats}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runCancelJob(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("cancel-job", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	jobID, err := jobIDArg(fs.Args())
	if err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	jobs := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})
	flagged, err := jobs.RequestCancel(cmdCtx.Ctx, jobID)
	if err != nil {
		return fmt.Errorf("request cancel: %w", err)
	}
	if !flagged {
		return errors.New("job is already in a terminal state")
	}

	cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "cancellation requested", "job_id", jobID)
	return nil
}

func runClearSeenKeys(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-seen-keys", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cmdCtx.Config.Redis.Enabled() {
		return errors.New("redis is not configured")
	}
	if !*yes {
		return errors.New("refusing to clear the cache without -yes")
	}

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = client.Close() }()

	pattern := cmdCtx.Config.Redis.SeenKeyPrefix + "*"
	var deleted int64
	iter := client.Scan(cmdCtx.Ctx, 0, pattern, 500).Iterator()
	for iter.Next(cmdCtx.Ctx) {
		if err := client.Del(cmdCtx.Ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan keys: %w", err)
	}

	cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "seen keys cleared", "deleted", deleted)
	return nil
}

func jobIDArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected exactly one job id argument")
	}
	if _, err := uuid.Parse(args[0]); err != nil {
		return "", fmt.Errorf("invalid job id %q: %w", args[0], err)
	}
	return args[0], nil
}
