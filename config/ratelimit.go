package config

import "time"

// ChannelRateConfig describes one token bucket layer.
type ChannelRateConfig struct {
	Capacity int
	Window   time.Duration
}

// RateLimitConfig contains the per-channel rate limit policies. Each channel
// may carry more than one bucket; every layer must admit before work proceeds.
type RateLimitConfig struct {
	// ScrapePerMinute bounds scrape engine submissions.
	ScrapePerMinute int `env:"RATE_SCRAPE_PER_MINUTE" envDefault:"30"`

	// EmailPerMinute and EmailPerHour are layered on the email channel.
	EmailPerMinute int `env:"RATE_EMAIL_PER_MINUTE" envDefault:"10"`
	EmailPerHour   int `env:"RATE_EMAIL_PER_HOUR"   envDefault:"100"`

	// WhatsAppPerMinute and WhatsAppPerDay are layered on the whatsapp channel.
	WhatsAppPerMinute int `env:"RATE_WHATSAPP_PER_MINUTE" envDefault:"60"`
	WhatsAppPerDay    int `env:"RATE_WHATSAPP_PER_DAY"    envDefault:"1000"`

	// SheetsPer100s bounds external sheet reads during bulk imports.
	SheetsPer100s int `env:"RATE_SHEETS_PER_100S" envDefault:"100"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.ScrapePerMinute < 1 {
		r.ScrapePerMinute = 1
	}
	if r.EmailPerMinute < 1 {
		r.EmailPerMinute = 1
	}
	if r.EmailPerHour < r.EmailPerMinute {
		r.EmailPerHour = r.EmailPerMinute
	}
	if r.WhatsAppPerMinute < 1 {
		r.WhatsAppPerMinute = 1
	}
	if r.WhatsAppPerDay < r.WhatsAppPerMinute {
		r.WhatsAppPerDay = r.WhatsAppPerMinute
	}
	if r.SheetsPer100s < 1 {
		r.SheetsPer100s = 1
	}
}
