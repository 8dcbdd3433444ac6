package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadgrid/leadgrid/config"
	"github.com/leadgrid/leadgrid/internal/adapters/dispatcher"
	"github.com/leadgrid/leadgrid/internal/adapters/reaper"
	"github.com/leadgrid/leadgrid/internal/adapters/scraperunner"
	"github.com/leadgrid/leadgrid/internal/core"
	httpx "github.com/leadgrid/leadgrid/internal/http"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownWaitTimeout = 15 * time.Second

// RunConfig groups everything RunServicesWithShutdown needs.
type RunConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config with AppConfig is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := &ServiceDeps{
		Config:      cfg.Config,
		DB:          cfg.DB,
		RedisClient: cfg.RedisClient,
		Logger:      logger,
	}
	limiter := BuildRateLimiter(cfg.Config.RateLimits)

	group, groupCtx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		if err := startHTTPService(groupCtx, group, deps); err != nil {
			return err
		}
	}
	if enabled[config.ServiceModeScrapeRunner] {
		if err := startScrapeRunner(groupCtx, group, deps, limiter); err != nil {
			return err
		}
	}
	if enabled[config.ServiceModeDispatcher] {
		if err := startDispatcher(groupCtx, group, deps, limiter); err != nil {
			return err
		}
	}
	if enabled[config.ServiceModeReaper] {
		if err := startReaper(groupCtx, group, deps); err != nil {
			return err
		}
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("all services stopped")
	return nil
}

func startHTTPService(ctx context.Context, group *errgroup.Group, deps *ServiceDeps) error {
	services, err := NewServices(deps)
	if err != nil {
		return err
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Jobs:   services.Jobs,
		Import: services.Import,
		Export: services.Export,
		Logger: deps.Logger,
	})
	server := &http.Server{
		Addr:              deps.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		deps.Logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		deps.Logger.Info("HTTP server stopped")
		return nil
	})
	return nil
}

func startScrapeRunner(ctx context.Context, group *errgroup.Group, deps *ServiceDeps, limiter core.RateLimiter) error {
	scrapeClient, err := BuildScraper(deps)
	if err != nil {
		return err
	}

	runner, err := scraperunner.NewRunner(scraperunner.RunnerOptions{
		DB:           deps.DB,
		Logger:       deps.Logger,
		Scraper:      scrapeClient,
		Limiter:      limiter,
		Lease:        deps.Config.ScrapeRunner.JobLease,
		Concurrency:  deps.Config.ScrapeRunner.Concurrency,
		PollInterval: deps.Config.ScrapeRunner.PollInterval,
		KeyCache:     BuildKeyCache(deps),
	})
	if err != nil {
		return fmt.Errorf("build scrape runner: %w", err)
	}

	group.Go(func() error { return runner.Run(ctx) })
	return nil
}

func startDispatcher(ctx context.Context, group *errgroup.Group, deps *ServiceDeps, limiter core.RateLimiter) error {
	channelSenders, err := BuildSenders(deps)
	if err != nil {
		return err
	}

	runner, err := dispatcher.NewRunner(dispatcher.RunnerOptions{
		DB:                deps.DB,
		Logger:            deps.Logger,
		Senders:           channelSenders,
		Limiter:           limiter,
		WorkersPerChannel: deps.Config.Dispatcher.WorkersPerChannel,
		PollInterval:      deps.Config.Dispatcher.PollInterval,
		BackoffBase:       deps.Config.Dispatcher.RetryBackoffBase,
		BackoffCap:        deps.Config.Dispatcher.RetryBackoffCap,
	})
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	group.Go(func() error { return runner.Run(ctx) })
	return nil
}

func startReaper(ctx context.Context, group *errgroup.Group, deps *ServiceDeps) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:     deps.DB,
		Config: deps.Config.Reaper,
		Logger: deps.Logger,
	})
	if err != nil {
		return fmt.Errorf("build reaper: %w", err)
	}

	group.Go(func() error { return runner.Run(ctx) })
	return nil
}
