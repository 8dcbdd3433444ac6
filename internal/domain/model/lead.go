package model

import (
	"strings"
	"time"
)

// RawLead is an unpersisted business record produced by a Scraper or Importer,
// before deduplication.
type RawLead struct {
	Name           string  `json:"name"`
	Website        string  `json:"website,omitempty"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Address        string  `json:"address,omitempty"`
	ReviewsCount   int     `json:"reviews_count,omitempty"`
	ReviewsAverage float64 `json:"reviews_average,omitempty"`
	PlaceType      string  `json:"place_type,omitempty"`
	OpeningHours   string  `json:"opening_hours,omitempty"`
	Source         string  `json:"source,omitempty"`
}

// Empty reports whether the record carries no usable identity at all.
func (r *RawLead) Empty() bool {
	return strings.TrimSpace(r.Name) == ""
}

// Lead represents a deduplicated, persisted business record owned by a job.
// Leads are immutable after insertion.
type Lead struct {
	ID             string    `json:"id"              db:"id"`
	JobID          string    `json:"job_id"          db:"job_id"`
	Position       int       `json:"position"        db:"position"`
	Name           string    `json:"name"            db:"name"`
	Website        string    `json:"website"         db:"website"`
	Email          string    `json:"email"           db:"email"`
	Phone          string    `json:"phone"           db:"phone"`
	Address        string    `json:"address"         db:"address"`
	ReviewsCount   int       `json:"reviews_count"   db:"reviews_count"`
	ReviewsAverage float64   `json:"reviews_average" db:"reviews_average"`
	PlaceType      string    `json:"place_type"      db:"place_type"`
	OpeningHours   string    `json:"opening_hours"   db:"opening_hours"`
	Source         string    `json:"source"          db:"source"`
	DedupKey       string    `json:"-"               db:"dedup_key"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}

// Contactable reports whether the lead is reachable on the given channel.
func (l *Lead) Contactable(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return strings.TrimSpace(l.Email) != ""
	case ChannelWhatsApp:
		return strings.TrimSpace(l.Phone) != ""
	default:
		return false
	}
}

// Recipient returns the address to contact the lead on for the given channel,
// or the empty string if the lead is not reachable there.
func (l *Lead) Recipient(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return strings.TrimSpace(l.Email)
	case ChannelWhatsApp:
		return strings.TrimSpace(l.Phone)
	default:
		return ""
	}
}

// TemplateFields returns the placeholder vocabulary a message template can
// reference for this lead.
func (l *Lead) TemplateFields() map[string]string {
	return map[string]string{
		"name":          l.Name,
		"business_name": l.Name,
		"email":         l.Email,
		"phone":         l.Phone,
		"website":       l.Website,
		"address":       l.Address,
	}
}
