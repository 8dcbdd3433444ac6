package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leadgrid/leadgrid/internal/dedupe"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
	"github.com/leadgrid/leadgrid/internal/mocks"
)

type scrapeFixture struct {
	jobs     *mocks.MockJobRepository
	leads    *mocks.MockLeadRepository
	messages *mocks.MockMessageRepository
	scraper  *mocks.MockScraper
	limiter  *mocks.MockRateLimiter
	keyCache *mocks.MockKeyCache
}

func newScrapeFixture(ctrl *gomock.Controller) *scrapeFixture {
	return &scrapeFixture{
		jobs:     mocks.NewMockJobRepository(ctrl),
		leads:    mocks.NewMockLeadRepository(ctrl),
		messages: mocks.NewMockMessageRepository(ctrl),
		scraper:  mocks.NewMockScraper(ctrl),
		limiter:  mocks.NewMockRateLimiter(ctrl),
		keyCache: mocks.NewMockKeyCache(ctrl),
	}
}

func (f *scrapeFixture) service(t *testing.T, withCache bool) *ScrapeService {
	t.Helper()
	opts := ScrapeServiceOptions{
		Jobs:     f.jobs,
		Leads:    f.leads,
		Messages: f.messages,
		Scraper:  f.scraper,
		Limiter:  f.limiter,
	}
	if withCache {
		opts.KeyCache = f.keyCache
	}
	svc, err := NewScrapeService(opts)
	require.NoError(t, err)
	return svc
}

func scrapingJob(mode model.JobMode, msgType model.MessageType) *model.Job {
	return &model.Job{
		ID:          "job-1",
		Query:       "plumbers in austin",
		ResultLimit: 10,
		Source:      "google_maps",
		Mode:        mode,
		MessageType: msgType,
		Template:    "Hi {name}",
		Status:      model.JobStatusScraping,
	}
}

func rawLead(name, email, phone string) *model.RawLead {
	return &model.RawLead{Name: name, Email: email, Phone: phone, Source: "google_maps"}
}

func TestScrapeService_Process_ScrapeAndContactHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)
	records := []*model.RawLead{
		rawLead("Acme Plumbing", "acme@example.com", ""),
		rawLead("Binary Pipes", "pipes@example.com", ""),
	}

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().
		Run(ctx, model.ScrapeRequest{JobID: "job-1", Query: job.Query, ResultLimit: 10, Source: "google_maps"}).
		Return(&model.ScrapeResult{Records: records}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().
		InsertBatch(ctx, "job-1", gomock.AssignableToTypeOf([]*model.Lead{})).
		DoAndReturn(func(_ context.Context, _ string, leads []*model.Lead) (int, error) {
			require.Len(t, leads, 2)
			assert.Equal(t, 0, leads[0].Position)
			assert.Equal(t, 1, leads[1].Position)
			assert.Equal(t, dedupe.Key(records[0]), leads[0].DedupKey)
			return len(leads), nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.messages.EXPECT().
		EnqueueBatch(ctx, gomock.AssignableToTypeOf([]*model.EnqueueMessage{})).
		DoAndReturn(func(_ context.Context, msgs []*model.EnqueueMessage) (int, error) {
			require.Len(t, msgs, 2)
			assert.Equal(t, model.ChannelEmail, msgs[0].Channel)
			assert.Equal(t, "acme@example.com", msgs[0].Recipient)
			assert.Equal(t, "Hi Acme Plumbing", msgs[0].Body)
			return len(msgs), nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
		Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_ScrapeOnlyCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeOnly, model.MessageTypeNone)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{rawLead("Acme", "", "")}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_FatalScrapeFailsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(nil, apperrors.ScrapeFailed("engine returned 502", nil))
	f.jobs.EXPECT().
		Fail(ctx, "job-1", gomock.AssignableToTypeOf("")).
		DoAndReturn(func(_ context.Context, _, reason string) (bool, error) {
			assert.Contains(t, reason, "scrape failed")
			return true, nil
		})

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_PartialResultsStillHandedOff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeOnly, model.MessageTypeNone)
	partial := &model.ScrapeResult{
		Records: []*model.RawLead{rawLead("Acme", "", "")},
		Partial: true,
	}

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(partial, apperrors.ScrapeFailed("scrape stopped early with 1 records", nil))
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_CanceledBeforeScrape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(true, nil)
	f.jobs.EXPECT().Fail(ctx, "job-1", "canceled by user").Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_LostScrapingStatusSkipsHandoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{rawLead("Acme", "a@example.com", "")}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	// Reaper failed the job after a lease expiry; the CAS loses.
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(false, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_SuppressedLeadsSkipOutreach(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)
	suppressedRaw := rawLead("Acme Plumbing", "acme@example.com", "")
	freshRaw := rawLead("Binary Pipes", "pipes@example.com", "")
	suppressedKey := dedupe.Key(suppressedRaw)
	freshKey := dedupe.Key(freshRaw)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{suppressedRaw, freshRaw}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(2, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.keyCache.EXPECT().
		Seen(ctx, []string{suppressedKey, freshKey}).
		Return(map[string]bool{suppressedKey: true}, nil)
	f.messages.EXPECT().
		EnqueueBatch(ctx, gomock.AssignableToTypeOf([]*model.EnqueueMessage{})).
		DoAndReturn(func(_ context.Context, msgs []*model.EnqueueMessage) (int, error) {
			require.Len(t, msgs, 1)
			assert.Equal(t, "pipes@example.com", msgs[0].Recipient)
			return 1, nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
		Return(true, nil)
	f.keyCache.EXPECT().Record(ctx, []string{freshKey}).Return(nil)

	require.NoError(t, f.service(t, true).Process(ctx, job))
}

func TestScrapeService_Process_CacheFailureDoesNotBlockOutreach(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)
	raw := rawLead("Acme", "acme@example.com", "")

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{raw}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.keyCache.EXPECT().Seen(ctx, gomock.Any()).Return(nil, errors.New("redis down"))
	f.messages.EXPECT().
		EnqueueBatch(ctx, gomock.AssignableToTypeOf([]*model.EnqueueMessage{})).
		DoAndReturn(func(_ context.Context, msgs []*model.EnqueueMessage) (int, error) {
			require.Len(t, msgs, 1)
			return 1, nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
		Return(true, nil)
	f.keyCache.EXPECT().Record(ctx, gomock.Any()).Return(nil)

	require.NoError(t, f.service(t, true).Process(ctx, job))
}

func TestScrapeService_Process_NoContactableLeadsCompletesJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)
	// No email, so the email channel has nothing to send.
	raw := rawLead("Acme", "", "512-555-0100")

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{raw}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	// Nothing to send, so the job never passes through contacting.
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_ContactingPrecedesEnqueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{rawLead("Acme", "acme@example.com", "")}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	// A message claimable before the job is contacting could be resolved by a
	// worker whose completion guard then misses forever.
	gomock.InOrder(
		f.jobs.EXPECT().
			Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
			Return(true, nil),
		f.messages.EXPECT().EnqueueBatch(ctx, gomock.Len(1)).Return(1, nil),
	)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_LostScrapingCompletedSkipsOutreach(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeAndContact, model.MessageTypeEmail)

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{rawLead("Acme", "acme@example.com", "")}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Any()).Return(1, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	// The job was failed underneath us; no messages may be enqueued for it.
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
		Return(false, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}

func TestScrapeService_Process_ResultLimitTruncates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newScrapeFixture(ctrl)
	job := scrapingJob(model.JobModeScrapeOnly, model.MessageTypeNone)
	job.ResultLimit = 1

	f.jobs.EXPECT().IsCancelRequested(ctx, "job-1").Return(false, nil).Times(2)
	f.limiter.EXPECT().Acquire(ctx, LimitChannelScrape).Return(nil)
	f.scraper.EXPECT().Run(ctx, gomock.Any()).
		Return(&model.ScrapeResult{Records: []*model.RawLead{
			rawLead("First", "", ""),
			rawLead("Second", "", ""),
		}}, nil)
	f.leads.EXPECT().ExistingKeys(ctx, "job-1").Return(nil, nil)
	f.leads.EXPECT().
		InsertBatch(ctx, "job-1", gomock.Len(1)).
		DoAndReturn(func(_ context.Context, _ string, leads []*model.Lead) (int, error) {
			assert.Equal(t, "First", leads[0].Name)
			return 1, nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScraping, model.JobStatusScrapingCompleted).
		Return(true, nil)
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)

	require.NoError(t, f.service(t, false).Process(ctx, job))
}
