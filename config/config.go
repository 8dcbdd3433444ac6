package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and cache configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode and worker configuration
//   - outbound.go: Scrape engine and delivery channel configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging etc).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Scrape runner configuration
	ScrapeRunner ScrapeRunnerConfig

	// Dispatcher configuration
	Dispatcher DispatcherConfig

	// Reaper configuration
	Reaper ReaperConfig

	// Outbound integration configuration
	ScrapeEngine ScrapeEngineConfig `envPrefix:"SCRAPE_ENGINE_"`
	Email        EmailConfig        `envPrefix:"SMTP_"`
	WhatsApp     WhatsAppConfig     `envPrefix:"WHATSAPP_"`

	// Per-channel rate limit configuration
	RateLimits RateLimitConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.ScrapeRunner.Sanitize()
	c.Dispatcher.Sanitize()
	c.Reaper.Sanitize()
	c.RateLimits.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsScrapeRunnerEnabled returns true if the scrape runner service is enabled.
func (c *AppConfig) IsScrapeRunnerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeScrapeRunner]
}

// IsDispatcherEnabled returns true if the dispatcher service is enabled.
func (c *AppConfig) IsDispatcherEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeDispatcher]
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}
