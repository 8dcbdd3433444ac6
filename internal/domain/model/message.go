package model

import (
	"errors"
	"strings"
	"time"
)

// Channel is an outreach medium with its own rate limits and sender.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Channel string

// MessageStatus represents the delivery state of an outreach message.
type MessageStatus string

const (
	// ChannelEmail delivers over email.
	ChannelEmail Channel = "email"
	// ChannelWhatsApp delivers over WhatsApp.
	ChannelWhatsApp Channel = "whatsapp"

	// MessageStatusPending indicates a message is waiting to be claimed by a dispatch worker.
	MessageStatusPending MessageStatus = "pending"
	// MessageStatusSending indicates a worker has claimed the message and a send is in flight.
	MessageStatusSending MessageStatus = "sending"
	// MessageStatusSent indicates the message was delivered. Terminal.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusFailed indicates the message exhausted its attempts or failed permanently. Terminal.
	MessageStatusFailed MessageStatus = "failed"
)

// Channels returns every dispatchable channel.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelWhatsApp}
}

// UnmarshalText implements encoding.TextUnmarshaler for Channel to allow env parsing.
func (c *Channel) UnmarshalText(text []byte) error {
	v := Channel(strings.ToLower(strings.TrimSpace(string(text))))
	if v.Valid() {
		*c = v
		return nil
	}
	return errors.New("invalid channel: " + string(text))
}

// Valid returns true if the Channel is valid.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelWhatsApp
}

// Valid returns true if the MessageStatus is valid.
func (s MessageStatus) Valid() bool {
	return s == MessageStatusPending || s == MessageStatusSending ||
		s == MessageStatusSent || s == MessageStatusFailed
}

// Terminal returns true when no further transition leaves this status.
func (s MessageStatus) Terminal() bool {
	return s == MessageStatusSent || s == MessageStatusFailed
}

// ErrNoMessagesAvailable is returned when no messages are available for claiming.
var ErrNoMessagesAvailable = errors.New("no messages available")

// OutreachMessage is one queued send to one recipient over one channel.
// Created at enqueue time, mutated only by the dispatcher, exactly one
// terminal status per message.
type OutreachMessage struct {
	ID           string        `json:"id"                 db:"id"`
	JobID        string        `json:"job_id"             db:"job_id"`
	LeadID       *string       `json:"lead_id,omitempty"  db:"lead_id"`
	Channel      Channel       `json:"contact_method"     db:"channel"`
	Recipient    string        `json:"recipient"          db:"recipient"`
	Body         string        `json:"message"            db:"body"`
	Status       MessageStatus `json:"status"             db:"status"`
	AttemptCount int           `json:"attempt_count"      db:"attempt_count"`
	MaxAttempts  int           `json:"max_attempts"       db:"max_attempts"`
	ScheduledAt  time.Time     `json:"scheduled_at"       db:"scheduled_at"`
	ClaimedAt    *time.Time    `json:"claimed_at,omitempty" db:"claimed_at"`
	SentAt       *time.Time    `json:"sent_at,omitempty"  db:"sent_at"`
	Error        *string       `json:"error,omitempty"    db:"error"`
	CreatedAt    time.Time     `json:"created_at"         db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"         db:"updated_at"`
}

// EnqueueMessage carries the fields fixed at enqueue time for one message.
type EnqueueMessage struct {
	JobID     string
	LeadID    *string
	Channel   Channel
	Recipient string
	Body      string
}

// Validate validates the EnqueueMessage fields.
func (m *EnqueueMessage) Validate() error {
	if m.JobID == "" {
		return errors.New("job id is required")
	}
	if !m.Channel.Valid() {
		return errors.New("invalid channel")
	}
	if strings.TrimSpace(m.Recipient) == "" {
		return errors.New("recipient is required")
	}
	return nil
}
