package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScrapeRunner runs the scrape phase workers.
	ServiceModeScrapeRunner ServiceMode = "scrape-runner"
	// ServiceModeDispatcher runs the outreach message dispatcher.
	ServiceModeDispatcher ServiceMode = "dispatcher"
	// ServiceModeReaper runs the cleanup reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeScrapeRunner,
		ServiceModeDispatcher,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP,
			ServiceModeScrapeRunner,
			ServiceModeDispatcher,
			ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, scrape-runner, dispatcher, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ScrapeRunnerConfig contains scrape runner service configuration.
type ScrapeRunnerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"SCRAPE_RUNNER_CONCURRENCY" envDefault:"2"`

	// JobLease is the duration a claimed job is leased to a worker. The
	// reaper fails jobs whose lease expired without completion.
	JobLease time.Duration `env:"SCRAPE_RUNNER_JOB_LEASE" envDefault:"10m"`

	// PollInterval is the fallback claim cadence when no notification arrives.
	PollInterval time.Duration `env:"SCRAPE_RUNNER_POLL_INTERVAL" envDefault:"15s"`
}

// Sanitize applies guardrails to scrape runner configuration values.
func (s *ScrapeRunnerConfig) Sanitize() {
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	if s.JobLease < 30*time.Second {
		s.JobLease = 30 * time.Second
	}
	if s.PollInterval < time.Second {
		s.PollInterval = time.Second
	}
}

// DispatcherConfig contains outreach dispatcher service configuration.
type DispatcherConfig struct {
	// WorkersPerChannel is the number of worker goroutines per channel.
	WorkersPerChannel int `env:"DISPATCHER_WORKERS_PER_CHANNEL" envDefault:"1"`

	// PollInterval is the fallback claim cadence when no notification arrives.
	PollInterval time.Duration `env:"DISPATCHER_POLL_INTERVAL" envDefault:"10s"`

	// RetryBackoffBase is the first retry delay, doubled per attempt.
	RetryBackoffBase time.Duration `env:"DISPATCHER_RETRY_BACKOFF_BASE" envDefault:"30s"`

	// RetryBackoffCap is the upper bound on the retry delay.
	RetryBackoffCap time.Duration `env:"DISPATCHER_RETRY_BACKOFF_CAP" envDefault:"15m"`

	// MaxAttempts is the delivery attempt budget per message.
	MaxAttempts int `env:"DISPATCHER_MAX_ATTEMPTS" envDefault:"3"`
}

// Sanitize applies guardrails to dispatcher configuration values.
func (d *DispatcherConfig) Sanitize() {
	if d.WorkersPerChannel < 1 {
		d.WorkersPerChannel = 1
	}
	if d.PollInterval < time.Second {
		d.PollInterval = time.Second
	}
	if d.RetryBackoffBase < time.Second {
		d.RetryBackoffBase = time.Second
	}
	if d.RetryBackoffCap < d.RetryBackoffBase {
		d.RetryBackoffCap = d.RetryBackoffBase
	}
	if d.MaxAttempts < 1 {
		d.MaxAttempts = 1
	}
}

// ReaperConfig contains cleanup reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// ScrapeLeaseGrace is how long past lease expiry a scraping job may live
	// before it is failed.
	ScrapeLeaseGrace time.Duration `env:"REAPER_SCRAPE_LEASE_GRACE" envDefault:"1m"`

	// SendingMaxClaimAge is the maximum age of a sending claim before the
	// message is requeued with its attempt refunded.
	SendingMaxClaimAge time.Duration `env:"REAPER_SENDING_MAX_CLAIM_AGE" envDefault:"10m"`

	// ContactingOrphanAge is how long a contacting job with only terminal
	// messages may sit before the reaper completes it on the dispatcher's
	// behalf.
	ContactingOrphanAge time.Duration `env:"REAPER_CONTACTING_ORPHAN_AGE" envDefault:"2m"`

	// CompletedMaxAge is the maximum age for completed jobs before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed jobs before deletion.
	FailedMaxAge time.Duration `env:"REAPER_FAILED_MAX_AGE" envDefault:"168h"` // 7 days

	// BatchSize is the maximum number of rows to process per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.ScrapeLeaseGrace < 0 {
		r.ScrapeLeaseGrace = 0
	}
	if r.SendingMaxClaimAge < 1*time.Minute {
		r.SendingMaxClaimAge = 1 * time.Minute
	}
	if r.ContactingOrphanAge < 1*time.Minute {
		r.ContactingOrphanAge = 1 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}
	if r.FailedMaxAge < 1*time.Hour {
		r.FailedMaxAge = 1 * time.Hour
	}

	// Enforce batch size bounds to prevent excessive locks or inefficiency
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
