package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from JobStatus
		to   JobStatus
		want bool
	}{
		{JobStatusPending, JobStatusScraping, true},
		{JobStatusScraping, JobStatusScrapingCompleted, true},
		{JobStatusScrapingCompleted, JobStatusContacting, true},
		{JobStatusScrapingCompleted, JobStatusCompleted, true},
		{JobStatusContacting, JobStatusCompleted, true},

		// failed is reachable from every non-terminal state
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusScraping, JobStatusFailed, true},
		{JobStatusScrapingCompleted, JobStatusFailed, true},
		{JobStatusContacting, JobStatusFailed, true},

		// no skipping forward
		{JobStatusPending, JobStatusScrapingCompleted, false},
		{JobStatusPending, JobStatusContacting, false},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusScraping, JobStatusContacting, false},
		{JobStatusScraping, JobStatusCompleted, false},

		// no moving backward
		{JobStatusScraping, JobStatusPending, false},
		{JobStatusContacting, JobStatusScraping, false},

		// terminal states never leave
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusCompleted, JobStatusContacting, false},
		{JobStatusFailed, JobStatusPending, false},
		{JobStatusFailed, JobStatusFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusScraping.Terminal())
	assert.False(t, JobStatusScrapingCompleted.Terminal())
	assert.False(t, JobStatusContacting.Terminal())
}

func TestJobMode_UnmarshalText(t *testing.T) {
	var m JobMode
	require.NoError(t, m.UnmarshalText([]byte(" Scrape_Only ")))
	assert.Equal(t, JobModeScrapeOnly, m)

	require.Error(t, m.UnmarshalText([]byte("scrape_everything")))
}

func TestMessageType_Channels(t *testing.T) {
	assert.Equal(t, []Channel{ChannelEmail}, MessageTypeEmail.Channels())
	assert.Equal(t, []Channel{ChannelWhatsApp}, MessageTypeWhatsApp.Channels())
	assert.Equal(t, []Channel{ChannelEmail, ChannelWhatsApp}, MessageTypeBoth.Channels())
	assert.Nil(t, MessageTypeNone.Channels())
}

func TestJob_ContactRequested(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want bool
	}{
		{
			name: "scrape and contact with email",
			job:  Job{Mode: JobModeScrapeAndContact, MessageType: MessageTypeEmail},
			want: true,
		},
		{
			name: "scrape only never contacts",
			job:  Job{Mode: JobModeScrapeOnly, MessageType: MessageTypeEmail},
			want: false,
		},
		{
			name: "message type none disables outreach",
			job:  Job{Mode: JobModeScrapeAndContact, MessageType: MessageTypeNone},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.ContactRequested())
		})
	}
}

func TestCreateJobRequest_Normalize(t *testing.T) {
	req := &CreateJobRequest{Query: "q", Mode: JobModeScrapeOnly}
	req.Normalize()
	assert.Equal(t, 10, req.ResultLimit)
	assert.Equal(t, "google_maps", req.Source)
	assert.Equal(t, MessageTypeNone, req.MessageType)

	req = &CreateJobRequest{Query: "q", Mode: JobModeScrapeOnly, ResultLimit: 9999}
	req.Normalize()
	assert.Equal(t, 500, req.ResultLimit)
}

func TestCreateJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateJobRequest
		wantErr string
	}{
		{
			name: "valid scrape only",
			req:  CreateJobRequest{Query: "q", Mode: JobModeScrapeOnly, MessageType: MessageTypeNone},
		},
		{
			name: "valid scrape and contact",
			req: CreateJobRequest{
				Query:       "q",
				Mode:        JobModeScrapeAndContact,
				MessageType: MessageTypeBoth,
				Template:    "Hi {name}",
			},
		},
		{
			name:    "missing query",
			req:     CreateJobRequest{Query: "  ", Mode: JobModeScrapeOnly, MessageType: MessageTypeNone},
			wantErr: "query is required",
		},
		{
			name:    "invalid mode",
			req:     CreateJobRequest{Query: "q", Mode: "turbo", MessageType: MessageTypeNone},
			wantErr: "invalid job mode",
		},
		{
			name:    "invalid message type",
			req:     CreateJobRequest{Query: "q", Mode: JobModeScrapeOnly, MessageType: "pigeon"},
			wantErr: "invalid message type",
		},
		{
			name: "contact needs a message type",
			req: CreateJobRequest{
				Query:       "q",
				Mode:        JobModeScrapeAndContact,
				MessageType: MessageTypeNone,
				Template:    "Hi",
			},
			wantErr: "message type is required",
		},
		{
			name: "contact needs a template",
			req: CreateJobRequest{
				Query:       "q",
				Mode:        JobModeScrapeAndContact,
				MessageType: MessageTypeEmail,
			},
			wantErr: "message template is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJobStatusView_Project(t *testing.T) {
	view := &JobStatusView{
		Status:       JobStatusContacting,
		ResultsCount: 3,
		MessageStats: MessageStats{Sent: 2, Failed: 1, Pending: 1},
	}
	view.Project()
	assert.True(t, view.HasResults)
	assert.False(t, view.CanExport)
	assert.Equal(t, "contacting (3/4 dispatched)", view.StatusDetail)

	view = &JobStatusView{Status: JobStatusScrapingCompleted, ResultsCount: 0}
	view.Project()
	assert.False(t, view.HasResults)
	assert.True(t, view.CanExport)
	assert.Equal(t, "scraping_completed", view.StatusDetail)

	view = &JobStatusView{Status: JobStatusPending}
	view.Project()
	assert.Equal(t, "queued", view.StatusDetail)
}

func TestJobStatusView_ProjectIsDeterministic(t *testing.T) {
	a := &JobStatusView{Status: JobStatusContacting, MessageStats: MessageStats{Sent: 1, Pending: 2}}
	b := &JobStatusView{Status: JobStatusContacting, MessageStats: MessageStats{Sent: 1, Pending: 2}}
	a.Project()
	b.Project()
	assert.Equal(t, a, b)
}
