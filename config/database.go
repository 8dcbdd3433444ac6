package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"leadgrid"`
	Password string `env:"PASSWORD" envDefault:"leadgrid"`
	Name     string `env:"NAME"     envDefault:"leadgrid"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the contacted-lead cache.
// Redis is optional; leave Addr empty to disable cross-job suppression.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// SeenKeyPrefix namespaces the contacted-lead keys.
	SeenKeyPrefix string `env:"SEEN_KEY_PREFIX" envDefault:"leadgrid:seen:"`

	// SeenRetention is how long a contacted lead suppresses repeat outreach.
	SeenRetention time.Duration `env:"SEEN_RETENTION" envDefault:"720h"` // 30 days
}

// Enabled reports whether a Redis endpoint is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Addr != ""
}
