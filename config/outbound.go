package config

import "time"

// ScrapeEngineConfig contains the external scrape engine settings.
type ScrapeEngineConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8090"`
	APIKey  string        `env:"API_KEY"  envDefault:""`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"5m"`
}

// EmailConfig contains the SMTP relay settings for the email channel.
// The email sender is disabled when Host is empty.
type EmailConfig struct {
	Host     string `env:"HOST"     envDefault:""`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	From     string `env:"FROM"     envDefault:""`
	Subject  string `env:"SUBJECT"  envDefault:""`
}

// Enabled reports whether the email channel is configured.
func (e *EmailConfig) Enabled() bool {
	return e.Host != "" && e.From != ""
}

// WhatsAppConfig contains the WhatsApp gateway settings.
// The whatsapp sender is disabled when BaseURL is empty.
type WhatsAppConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:""`
	APIKey  string        `env:"API_KEY"  envDefault:""`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"30s"`
}

// Enabled reports whether the whatsapp channel is configured.
func (w *WhatsAppConfig) Enabled() bool {
	return w.BaseURL != ""
}
