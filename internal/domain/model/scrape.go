package model

// ScrapeRequest describes one search sent to the scrape engine.
type ScrapeRequest struct {
	JobID       string `json:"job_id"`
	Query       string `json:"query"`
	ResultLimit int    `json:"limit"`
	Source      string `json:"source"`
}

// ScrapeResult carries the records a scrape produced. Partial is set when the
// engine stopped early; the records gathered so far are still usable.
type ScrapeResult struct {
	Records []*RawLead `json:"records"`
	Partial bool       `json:"partial"`
}
