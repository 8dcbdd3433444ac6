package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/dedupe"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	"github.com/leadgrid/leadgrid/internal/template"
)

// rate limit channel names shared with the limiter configuration.
const (
	LimitChannelScrape = "scrape"
)

// ScrapeServiceOptions groups dependencies for ScrapeService.
type ScrapeServiceOptions struct {
	Jobs     core.JobRepository     // Required: job repository
	Leads    core.LeadRepository    // Required: lead repository
	Messages core.MessageRepository // Required: message repository
	Scraper  core.Scraper           // Required: upstream scrape engine
	Limiter  core.RateLimiter       // Required: per-channel rate limiter
	KeyCache core.KeyCache          // Optional: cross-job suppression cache
	Logger   *slog.Logger           // Optional: structured logger
}

// ScrapeService runs the scrape phase of a claimed job: rate-limited engine
// call, deduplication, persistence, and the handoff to outreach.
type ScrapeService struct {
	jobs     core.JobRepository
	leads    core.LeadRepository
	messages core.MessageRepository
	scraper  core.Scraper
	limiter  core.RateLimiter
	keyCache core.KeyCache
	logger   *slog.Logger
}

// NewScrapeService constructs a new ScrapeService.
func NewScrapeService(opts ScrapeServiceOptions) (*ScrapeService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Leads == nil {
		return nil, errors.New("LeadRepository is required")
	}
	if opts.Messages == nil {
		return nil, errors.New("MessageRepository is required")
	}
	if opts.Scraper == nil {
		return nil, errors.New("Scraper is required")
	}
	if opts.Limiter == nil {
		return nil, errors.New("RateLimiter is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "scrape_service")
	}

	return &ScrapeService{
		jobs:     opts.Jobs,
		leads:    opts.Leads,
		messages: opts.Messages,
		scraper:  opts.Scraper,
		limiter:  opts.Limiter,
		keyCache: opts.KeyCache,
		logger:   logger,
	}, nil
}

// MustNewScrapeService constructs a new ScrapeService and panics on error.
func MustNewScrapeService(opts ScrapeServiceOptions) *ScrapeService {
	svc, err := NewScrapeService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ScrapeService: %v", err))
	}
	return svc
}

// Process runs the scrape phase for a job already claimed into scraping.
// A failure anywhere fails the job with a descriptive error; results
// persisted before the failure stay readable.
func (s *ScrapeService) Process(ctx context.Context, job *model.Job) error {
	if canceled, err := s.checkCanceled(ctx, job.ID); err != nil || canceled {
		return err
	}

	if err := s.limiter.Acquire(ctx, LimitChannelScrape); err != nil {
		return s.failJob(ctx, job.ID, fmt.Sprintf("scrape rate limit wait interrupted: %v", err))
	}

	result, scrapeErr := s.scraper.Run(ctx, model.ScrapeRequest{
		JobID:       job.ID,
		Query:       job.Query,
		ResultLimit: job.ResultLimit,
		Source:      job.Source,
	})
	if scrapeErr != nil && (result == nil || len(result.Records) == 0) {
		return s.failJob(ctx, job.ID, fmt.Sprintf("scrape failed: %v", scrapeErr))
	}
	if scrapeErr != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "scrape returned partial results",
			"job_id", job.ID,
			"records", len(result.Records),
			"error", scrapeErr,
		)
	}

	leads, err := s.dedupeAndStore(ctx, job, result.Records)
	if err != nil {
		return s.failJob(ctx, job.ID, fmt.Sprintf("store results: %v", err))
	}

	if canceled, cancelErr := s.checkCanceled(ctx, job.ID); cancelErr != nil || canceled {
		return cancelErr
	}

	advanced, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScraping, model.JobStatusScrapingCompleted)
	if err != nil {
		return fmt.Errorf("advance job %s to scraping_completed: %w", job.ID, err)
	}
	if !advanced {
		// The job left scraping underneath us, e.g. failed by the reaper
		// after a lease expiry. Leave it alone.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job no longer scraping, skipping handoff", "job_id", job.ID)
		}
		return nil
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scrape phase finished",
			"job_id", job.ID,
			"leads", len(leads),
			"partial", result.Partial || scrapeErr != nil,
		)
	}

	if !job.ContactRequested() {
		if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusCompleted); err != nil {
			return fmt.Errorf("complete scrape-only job %s: %w", job.ID, err)
		}
		return nil
	}

	return s.startOutreach(ctx, job, leads)
}

// dedupeAndStore filters the raw records against the job's stored keys and
// each other, truncates to the result limit, and persists the survivors.
func (s *ScrapeService) dedupeAndStore(
	ctx context.Context,
	job *model.Job,
	records []*model.RawLead,
) ([]*model.Lead, error) {
	existing, err := s.leads.ExistingKeys(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing keys: %w", err)
	}

	unique := dedupe.Filter(existing, records)
	if len(unique) > job.ResultLimit {
		unique = unique[:job.ResultLimit]
	}

	leads := make([]*model.Lead, 0, len(unique))
	for i, raw := range unique {
		leads = append(leads, &model.Lead{
			JobID:          job.ID,
			Position:       i,
			Name:           raw.Name,
			Website:        raw.Website,
			Email:          raw.Email,
			Phone:          raw.Phone,
			Address:        raw.Address,
			ReviewsCount:   raw.ReviewsCount,
			ReviewsAverage: raw.ReviewsAverage,
			PlaceType:      raw.PlaceType,
			OpeningHours:   raw.OpeningHours,
			Source:         raw.Source,
			DedupKey:       dedupe.Key(raw),
		})
	}

	if _, err := s.leads.InsertBatch(ctx, job.ID, leads); err != nil {
		return nil, fmt.Errorf("insert leads: %w", err)
	}
	return leads, nil
}

// startOutreach renders messages for every contactable lead, moves the job
// into contacting, and enqueues them. A job with nothing to send goes
// straight to completed. Leads already contacted by an earlier job are
// skipped when a suppression cache is configured.
func (s *ScrapeService) startOutreach(ctx context.Context, job *model.Job, leads []*model.Lead) error {
	suppressed, err := s.suppressedKeys(ctx, leads)
	if err != nil {
		// Suppression is best-effort; never block outreach on cache trouble.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "suppression cache lookup failed", "job_id", job.ID, "error", err)
		}
		suppressed = nil
	}

	msgs, contactedKeys := buildOutreach(job, leads, suppressed)

	if len(msgs) == 0 {
		// No contactable lead survived, so the job never enters contacting.
		if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusCompleted); err != nil {
			return fmt.Errorf("complete job %s with no messages: %w", job.ID, err)
		}
		return nil
	}

	// The job must be contacting before the first message becomes claimable.
	// Enqueueing first opens a window where a fast worker resolves the last
	// message while the completion guard still misses.
	advanced, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusContacting)
	if err != nil {
		return fmt.Errorf("advance job %s to contacting: %w", job.ID, err)
	}
	if !advanced {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job left scraping_completed, skipping outreach", "job_id", job.ID)
		}
		return nil
	}

	if _, err := s.messages.EnqueueBatch(ctx, msgs); err != nil {
		return s.failJob(ctx, job.ID, fmt.Sprintf("enqueue messages: %v", err))
	}

	if s.keyCache != nil && len(contactedKeys) > 0 {
		if recordErr := s.keyCache.Record(ctx, contactedKeys); recordErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "suppression cache record failed", "job_id", job.ID, "error", recordErr)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "outreach enqueued", "job_id", job.ID, "messages", len(msgs))
	}
	return nil
}

// buildOutreach renders one message per (contactable lead, channel) pair,
// skipping leads suppressed by the cross-job cache. Returns the messages and
// the dedup keys of leads that will actually be contacted.
func buildOutreach(
	job *model.Job,
	leads []*model.Lead,
	suppressed map[string]bool,
) ([]*model.EnqueueMessage, []string) {
	var msgs []*model.EnqueueMessage
	var contactedKeys []string
	for _, lead := range leads {
		if suppressed[lead.DedupKey] {
			continue
		}
		enqueuedAny := false
		for _, ch := range job.MessageType.Channels() {
			if !lead.Contactable(ch) {
				continue
			}
			msgs = append(msgs, &model.EnqueueMessage{
				JobID:     job.ID,
				LeadID:    &lead.ID,
				Channel:   ch,
				Recipient: lead.Recipient(ch),
				Body:      template.Render(job.Template, lead.TemplateFields()),
			})
			enqueuedAny = true
		}
		if enqueuedAny {
			contactedKeys = append(contactedKeys, lead.DedupKey)
		}
	}
	return msgs, contactedKeys
}

func (s *ScrapeService) suppressedKeys(ctx context.Context, leads []*model.Lead) (map[string]bool, error) {
	if s.keyCache == nil || len(leads) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(leads))
	for _, lead := range leads {
		keys = append(keys, lead.DedupKey)
	}
	return s.keyCache.Seen(ctx, keys)
}

// checkCanceled fails the job when the user requested cancellation.
func (s *ScrapeService) checkCanceled(ctx context.Context, jobID string) (bool, error) {
	canceled, err := s.jobs.IsCancelRequested(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("check cancel for job %s: %w", jobID, err)
	}
	if !canceled {
		return false, nil
	}
	if _, failErr := s.jobs.Fail(ctx, jobID, "canceled by user"); failErr != nil {
		return true, fmt.Errorf("fail canceled job %s: %w", jobID, failErr)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job canceled during scrape", "job_id", jobID)
	}
	return true, nil
}

func (s *ScrapeService) failJob(ctx context.Context, jobID, msg string) error {
	if _, err := s.jobs.Fail(ctx, jobID, msg); err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "scrape job failed", "job_id", jobID, "reason", msg)
	}
	return nil
}
