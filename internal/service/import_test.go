package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
	"github.com/leadgrid/leadgrid/internal/mocks"
)

type importFixture struct {
	jobs     *mocks.MockJobRepository
	leads    *mocks.MockLeadRepository
	messages *mocks.MockMessageRepository
	svc      *ImportService
}

func newImportFixture(t *testing.T, ctrl *gomock.Controller) *importFixture {
	t.Helper()

	f := &importFixture{
		jobs:     mocks.NewMockJobRepository(ctrl),
		leads:    mocks.NewMockLeadRepository(ctrl),
		messages: mocks.NewMockMessageRepository(ctrl),
	}
	svc, err := NewImportService(ImportServiceOptions{
		Jobs:     f.jobs,
		Leads:    f.leads,
		Messages: f.messages,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestParseLeadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{
			name:  "standard columns",
			input: "name,email,phone\nAcme,acme@example.com,555-0100\nBinary,,555-0101\n",
			want:  2,
		},
		{
			name:  "alternate column names",
			input: "business_name,e-mail,telephone,url\nAcme,acme@example.com,555-0100,acme.example\n",
			want:  1,
		},
		{
			name:  "rows without a name are dropped",
			input: "name,email\nAcme,acme@example.com\n,orphan@example.com\n",
			want:  1,
		},
		{
			name:    "missing name column",
			input:   "email,phone\nacme@example.com,555-0100\n",
			wantErr: "name column",
		},
		{
			name:    "empty body",
			input:   "",
			wantErr: "header row",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := parseLeadCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParseLeadCSV_ParsesReviewCount(t *testing.T) {
	records, err := parseLeadCSV(strings.NewReader("name,reviews\nAcme,42\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 42, records[0].ReviewsCount)
}

func TestImportService_ImportCSV_ScrapeOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newImportFixture(t, ctrl)
	job := &model.Job{
		ID:     "job-1",
		Mode:   model.JobModeScrapeOnly,
		Status: model.JobStatusScrapingCompleted,
	}

	f.jobs.EXPECT().
		CreateCompleted(ctx, gomock.AssignableToTypeOf(&model.CreateJobRequest{}), model.JobStatusScrapingCompleted).
		DoAndReturn(func(_ context.Context, req *model.CreateJobRequest, _ model.JobStatus) (*model.Job, error) {
			assert.Equal(t, "spring leads", req.Query)
			assert.Equal(t, "csv_import", req.Source)
			assert.Equal(t, model.JobModeScrapeOnly, req.Mode)
			return job, nil
		})
	f.leads.EXPECT().
		InsertBatch(ctx, "job-1", gomock.Len(2)).
		DoAndReturn(func(_ context.Context, _ string, leads []*model.Lead) (int, error) {
			assert.Equal(t, "import", leads[0].Source)
			return 2, nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)
	done := &model.Job{ID: "job-1", Status: model.JobStatusCompleted}
	f.jobs.EXPECT().GetByID(ctx, "job-1").Return(done, nil)

	got, err := f.svc.ImportCSV(ctx, ImportCSVRequest{
		Reader: strings.NewReader("name,email\nAcme,acme@example.com\nBinary,pipes@example.com\n"),
		Label:  "spring leads",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}

func TestImportService_ImportCSV_WithOutreach(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newImportFixture(t, ctrl)
	job := &model.Job{
		ID:          "job-1",
		Mode:        model.JobModeScrapeAndContact,
		MessageType: model.MessageTypeEmail,
		Template:    "Hi {name}",
		Status:      model.JobStatusScrapingCompleted,
	}

	f.jobs.EXPECT().
		CreateCompleted(ctx, gomock.AssignableToTypeOf(&model.CreateJobRequest{}), model.JobStatusScrapingCompleted).
		DoAndReturn(func(_ context.Context, req *model.CreateJobRequest, _ model.JobStatus) (*model.Job, error) {
			assert.Equal(t, model.JobModeScrapeAndContact, req.Mode)
			return job, nil
		})
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Len(1)).Return(1, nil)
	// The job enters contacting before its messages become claimable.
	gomock.InOrder(
		f.jobs.EXPECT().
			Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
			Return(true, nil),
		f.messages.EXPECT().
			EnqueueBatch(ctx, gomock.Len(1)).
			DoAndReturn(func(_ context.Context, msgs []*model.EnqueueMessage) (int, error) {
				assert.Equal(t, "acme@example.com", msgs[0].Recipient)
				assert.Equal(t, "Hi Acme", msgs[0].Body)
				return 1, nil
			}),
	)
	f.jobs.EXPECT().GetByID(ctx, "job-1").Return(job, nil)

	_, err := f.svc.ImportCSV(ctx, ImportCSVRequest{
		Reader:      strings.NewReader("name,email\nAcme,acme@example.com\n"),
		MessageType: model.MessageTypeEmail,
		Template:    "Hi {name}",
	})
	require.NoError(t, err)
}

func TestImportService_ImportCSV_NoContactableLeadsCompletesJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newImportFixture(t, ctrl)
	job := &model.Job{
		ID:          "job-1",
		Mode:        model.JobModeScrapeAndContact,
		MessageType: model.MessageTypeEmail,
		Template:    "Hi {name}",
		Status:      model.JobStatusScrapingCompleted,
	}

	f.jobs.EXPECT().
		CreateCompleted(ctx, gomock.Any(), model.JobStatusScrapingCompleted).
		Return(job, nil)
	f.leads.EXPECT().InsertBatch(ctx, "job-1", gomock.Len(1)).Return(1, nil)
	// The only row has no email, so the email channel has nothing to send
	// and the job finishes without passing through contacting.
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusCompleted).
		Return(true, nil)
	done := &model.Job{ID: "job-1", Status: model.JobStatusCompleted}
	f.jobs.EXPECT().GetByID(ctx, "job-1").Return(done, nil)

	got, err := f.svc.ImportCSV(ctx, ImportCSVRequest{
		Reader:      strings.NewReader("name,phone\nAcme,555-0100\n"),
		MessageType: model.MessageTypeEmail,
		Template:    "Hi {name}",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}

func TestImportService_ImportCSV_RejectsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newImportFixture(t, ctrl)

	_, err := f.svc.ImportCSV(context.Background(), ImportCSVRequest{
		Reader: strings.NewReader("name,email\n"),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestImportService_ImportCSV_RequiresBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newImportFixture(t, ctrl)

	_, err := f.svc.ImportCSV(context.Background(), ImportCSVRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestImportService_BulkMessage_EnqueuesAllRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	f := newImportFixture(t, ctrl)
	job := &model.Job{ID: "job-1", Status: model.JobStatusScrapingCompleted}

	f.jobs.EXPECT().
		CreateCompleted(ctx, gomock.AssignableToTypeOf(&model.CreateJobRequest{}), model.JobStatusScrapingCompleted).
		DoAndReturn(func(_ context.Context, req *model.CreateJobRequest, _ model.JobStatus) (*model.Job, error) {
			assert.Equal(t, "bulk_message", req.Source)
			assert.Equal(t, model.MessageTypeWhatsApp, req.MessageType)
			return job, nil
		})
	f.messages.EXPECT().
		EnqueueBatch(ctx, gomock.Len(2)).
		DoAndReturn(func(_ context.Context, msgs []*model.EnqueueMessage) (int, error) {
			assert.Equal(t, model.ChannelWhatsApp, msgs[0].Channel)
			assert.Equal(t, "+4915112345678", msgs[0].Recipient)
			assert.Equal(t, "Hallo Acme", msgs[0].Body)
			return 2, nil
		})
	f.jobs.EXPECT().
		Transition(ctx, "job-1", model.JobStatusScrapingCompleted, model.JobStatusContacting).
		Return(true, nil)
	f.jobs.EXPECT().GetByID(ctx, "job-1").Return(job, nil)

	_, err := f.svc.BulkMessage(ctx, &BulkMessageRequest{
		Channel:  model.ChannelWhatsApp,
		Template: "Hallo {name}",
		Recipients: []BulkMessageRecipient{
			{Name: "Acme", Recipient: "+4915112345678"},
			{Name: "Binary", Recipient: "+4915187654321"},
		},
	})
	require.NoError(t, err)
}

func TestImportService_BulkMessage_ValidationFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newImportFixture(t, ctrl)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *BulkMessageRequest
	}{
		{name: "nil request", req: nil},
		{
			name: "invalid channel",
			req: &BulkMessageRequest{
				Channel:    "fax",
				Template:   "Hi",
				Recipients: []BulkMessageRecipient{{Recipient: "a@example.com"}},
			},
		},
		{
			name: "empty template",
			req: &BulkMessageRequest{
				Channel:    model.ChannelEmail,
				Recipients: []BulkMessageRecipient{{Recipient: "a@example.com"}},
			},
		},
		{
			name: "no recipients",
			req:  &BulkMessageRequest{Channel: model.ChannelEmail, Template: "Hi"},
		},
		{
			name: "blank recipient address",
			req: &BulkMessageRequest{
				Channel:    model.ChannelEmail,
				Template:   "Hi",
				Recipients: []BulkMessageRecipient{{Name: "Acme", Recipient: "  "}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BulkMessage(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
		})
	}
}
