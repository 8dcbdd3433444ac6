// Package model defines the core data types and structures used throughout the leadgrid job system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobMode represents what a job does after scraping.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobMode string

// MessageType represents which outreach channels a job requested.
type MessageType string

// JobStatus represents the current lifecycle state of a job.
type JobStatus string

const (
	// JobModeScrapeOnly collects leads without contacting them.
	JobModeScrapeOnly JobMode = "scrape_only"
	// JobModeScrapeAndContact collects leads and dispatches outreach messages.
	JobModeScrapeAndContact JobMode = "scrape_and_contact"

	// MessageTypeEmail sends outreach over email only.
	MessageTypeEmail MessageType = "email"
	// MessageTypeWhatsApp sends outreach over WhatsApp only.
	MessageTypeWhatsApp MessageType = "whatsapp"
	// MessageTypeBoth sends outreach over every channel a lead is reachable on.
	MessageTypeBoth MessageType = "both"
	// MessageTypeNone disables outreach regardless of mode.
	MessageTypeNone MessageType = "none"

	// JobStatusPending indicates a job is waiting to be picked up by a scrape worker.
	JobStatusPending JobStatus = "pending"
	// JobStatusScraping indicates the scrape phase is in progress.
	JobStatusScraping JobStatus = "scraping"
	// JobStatusScrapingCompleted indicates scraping finished and results are persisted.
	JobStatusScrapingCompleted JobStatus = "scraping_completed"
	// JobStatusContacting indicates outreach messages are enqueued and being dispatched.
	JobStatusContacting JobStatus = "contacting"
	// JobStatusCompleted indicates the job reached its successful terminal state.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job reached its failed terminal state.
	JobStatusFailed JobStatus = "failed"
)

// ErrNoJobsAvailable is returned when no jobs are available for claiming.
var ErrNoJobsAvailable = errors.New("no jobs available")

// UnmarshalText implements encoding.TextUnmarshaler for JobMode to allow env parsing.
func (m *JobMode) UnmarshalText(text []byte) error {
	v := JobMode(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*m = v
		return nil
	}
	return fmt.Errorf("invalid JobMode: %q", v)
}

// Valid returns true if the JobMode is valid.
func (m JobMode) Valid() bool {
	return m == JobModeScrapeOnly || m == JobModeScrapeAndContact
}

// Valid returns true if the MessageType is valid.
func (t MessageType) Valid() bool {
	return t == MessageTypeEmail || t == MessageTypeWhatsApp || t == MessageTypeBoth || t == MessageTypeNone
}

// Channels returns the outreach channels this message type fans out to.
func (t MessageType) Channels() []Channel {
	switch t {
	case MessageTypeEmail:
		return []Channel{ChannelEmail}
	case MessageTypeWhatsApp:
		return []Channel{ChannelWhatsApp}
	case MessageTypeBoth:
		return []Channel{ChannelEmail, ChannelWhatsApp}
	case MessageTypeNone:
		return nil
	default:
		return nil
	}
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusScraping, JobStatusScrapingCompleted,
		JobStatusContacting, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transition leaves this status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether the state machine permits moving from s to next.
// The machine only moves forward; failed is reachable from every non-terminal state.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	switch s {
	case JobStatusPending:
		return next == JobStatusScraping
	case JobStatusScraping:
		return next == JobStatusScrapingCompleted
	case JobStatusScrapingCompleted:
		return next == JobStatusContacting || next == JobStatusCompleted
	case JobStatusContacting:
		return next == JobStatusCompleted
	default:
		return false
	}
}

// Job represents one user-initiated scrape(+contact) request and its lifecycle.
type Job struct {
	ID              string      `json:"id"                         db:"id"`
	Query           string      `json:"query"                      db:"query"`
	ResultLimit     int         `json:"result_limit"               db:"result_limit"`
	Source          string      `json:"source"                     db:"source"`
	Mode            JobMode     `json:"mode"                       db:"mode"`
	MessageType     MessageType `json:"message_type"               db:"message_type"`
	Template        string      `json:"template"                   db:"message_template"`
	Owner           *string     `json:"owner,omitempty"            db:"owner"`
	Status          JobStatus   `json:"status"                     db:"status"`
	LastError       *string     `json:"last_error,omitempty"       db:"last_error"`
	CancelRequested bool        `json:"cancel_requested"           db:"cancel_requested"`
	LeaseExpiresAt  *time.Time  `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	StartedAt       *time.Time  `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"     db:"completed_at"`
	CreatedAt       time.Time   `json:"created_at"                 db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"                 db:"updated_at"`
}

// ContactRequested returns true when the job should enqueue outreach after scraping.
func (j *Job) ContactRequested() bool {
	return j.Mode == JobModeScrapeAndContact && j.MessageType != MessageTypeNone && j.MessageType != ""
}

const (
	defaultResultLimit = 10
	maxResultLimit     = 500
	defaultSource      = "google_maps"
)

// CreateJobRequest represents a request to create a new scrape job.
type CreateJobRequest struct {
	Query       string      `json:"query"`
	ResultLimit int         `json:"limit,omitempty"`
	Source      string      `json:"source,omitempty"`
	Mode        JobMode     `json:"mode"`
	MessageType MessageType `json:"message_type,omitempty"`
	Template    string      `json:"message_template,omitempty"`
	Owner       *string     `json:"owner,omitempty"`
}

// Normalize fills defaults for optional fields.
func (r *CreateJobRequest) Normalize() {
	if r.ResultLimit <= 0 {
		r.ResultLimit = defaultResultLimit
	}
	if r.ResultLimit > maxResultLimit {
		r.ResultLimit = maxResultLimit
	}
	if strings.TrimSpace(r.Source) == "" {
		r.Source = defaultSource
	}
	if r.MessageType == "" {
		r.MessageType = MessageTypeNone
	}
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if !r.Mode.Valid() {
		return errors.New("invalid job mode")
	}
	if !r.MessageType.Valid() {
		return errors.New("invalid message type")
	}
	if r.Mode == JobModeScrapeAndContact {
		if r.MessageType == MessageTypeNone {
			return errors.New("message type is required for scrape_and_contact mode")
		}
		if strings.TrimSpace(r.Template) == "" {
			return errors.New("message template is required for scrape_and_contact mode")
		}
	}
	return nil
}

// JobListOptions filters and pages job listings.
type JobListOptions struct {
	Status *JobStatus
	Owner  *string
	Limit  int
	Offset int
}

// MessageStats counts a job's outreach messages by outcome. Messages claimed
// by a dispatch worker but not yet terminal count as pending.
type MessageStats struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Total returns the number of messages enqueued for the job.
func (s MessageStats) Total() int {
	return s.Sent + s.Failed + s.Pending
}

// JobStatusView is the pull-based read model exposed to status pollers.
type JobStatusView struct {
	ID            string       `json:"id"`
	Status        JobStatus    `json:"status"`
	StatusDetail  string       `json:"status_detail"`
	LastError     *string      `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ResultsCount  int          `json:"results_count"`
	MessagesCount int          `json:"messages_count"`
	MessageStats  MessageStats `json:"message_stats"`
	HasResults    bool         `json:"has_results"`
	CanExport     bool         `json:"can_export"`
}

// Project derives the presentation fields from the authoritative state and
// counters. It is deterministic: the same (status, counters) always yields
// the same view.
func (v *JobStatusView) Project() {
	v.HasResults = v.ResultsCount > 0
	v.CanExport = v.Status == JobStatusScrapingCompleted || v.Status == JobStatusCompleted
	v.StatusDetail = statusDetail(v.Status, v.MessageStats)
}

func statusDetail(status JobStatus, stats MessageStats) string {
	switch status {
	case JobStatusPending:
		return "queued"
	case JobStatusScraping:
		return "scraping_in_progress"
	case JobStatusScrapingCompleted:
		return "scraping_completed"
	case JobStatusContacting:
		done := stats.Sent + stats.Failed
		return fmt.Sprintf("contacting (%d/%d dispatched)", done, stats.Total())
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return string(status)
	}
}
