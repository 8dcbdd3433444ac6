package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadgrid/leadgrid/config"
	redisadapter "github.com/leadgrid/leadgrid/internal/adapters/redis"
	"github.com/leadgrid/leadgrid/internal/adapters/scraper"
	"github.com/leadgrid/leadgrid/internal/adapters/senders"
	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/ratelimit"
	"github.com/leadgrid/leadgrid/internal/service"
	"github.com/redis/go-redis/v9"
)

// LimitChannelSheets gates external sheet reads during bulk imports.
const LimitChannelSheets = "sheets"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs   *service.JobService
	Import *service.ImportService
	Export *service.ExportService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	JobRepo     *data.JobRepo
	LeadRepo    *data.LeadRepo
	MessageRepo *data.MessageRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(deps *ServiceDeps) *serviceRepositories {
	maxAttempts := 0
	if deps.Config != nil {
		maxAttempts = deps.Config.Dispatcher.MaxAttempts
	}
	return &serviceRepositories{
		JobRepo:  data.NewJobRepo(deps.DB, data.RepoConfig{Logger: deps.Logger}),
		LeadRepo: data.NewLeadRepo(deps.DB, data.RepoConfig{Logger: deps.Logger}),
		MessageRepo: data.NewMessageRepo(deps.DB, data.MessageRepoConfig{
			RepoConfig:  data.RepoConfig{Logger: deps.Logger},
			MaxAttempts: maxAttempts,
		}),
	}
}

// BuildRateLimiter configures the process-wide per-channel rate limiter.
// The hour and day buckets layer on top of the per-minute ones; an admission
// must pass every layer.
func BuildRateLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	limiter := ratelimit.New()
	limiter.Configure(service.LimitChannelScrape,
		ratelimit.PerWindow(cfg.ScrapePerMinute, time.Minute),
	)
	limiter.Configure("email",
		ratelimit.PerWindow(cfg.EmailPerMinute, time.Minute),
		ratelimit.PerWindow(cfg.EmailPerHour, time.Hour),
	)
	limiter.Configure("whatsapp",
		ratelimit.PerWindow(cfg.WhatsAppPerMinute, time.Minute),
		ratelimit.PerWindow(cfg.WhatsAppPerDay, 24*time.Hour),
	)
	limiter.Configure(LimitChannelSheets,
		ratelimit.PerWindow(cfg.SheetsPer100s, 100*time.Second),
	)
	return limiter
}

// BuildKeyCache returns the cross-job suppression cache, or the no-op cache
// when Redis is not configured.
//
//nolint:ireturn // the no-op fallback and the Redis cache share the port.
func BuildKeyCache(deps *ServiceDeps) core.KeyCache {
	if deps.RedisClient == nil {
		return redisadapter.NoopKeyCache{}
	}
	cacheCfg := redisadapter.Config{}
	if deps.Config != nil {
		cacheCfg.Prefix = deps.Config.Redis.SeenKeyPrefix
		cacheCfg.Retention = deps.Config.Redis.SeenRetention
	}
	return redisadapter.NewKeyCache(deps.RedisClient, cacheCfg)
}

// BuildScraper constructs the scrape engine client from configuration.
func BuildScraper(deps *ServiceDeps) (core.Scraper, error) { //nolint:ireturn
	if deps.Config == nil {
		return nil, errors.New("app config is required to build the scraper")
	}
	return scraper.NewClient(scraper.Config{
		BaseURL: deps.Config.ScrapeEngine.BaseURL,
		APIKey:  deps.Config.ScrapeEngine.APIKey,
		Timeout: deps.Config.ScrapeEngine.Timeout,
		Logger:  deps.Logger,
	})
}

// BuildSenders constructs one sender per configured channel. At least one
// channel must be configured for the dispatcher to run.
func BuildSenders(deps *ServiceDeps) ([]core.ChannelSender, error) {
	if deps.Config == nil {
		return nil, errors.New("app config is required to build senders")
	}

	var out []core.ChannelSender
	if deps.Config.Email.Enabled() {
		emailSender, err := senders.NewEmailSender(senders.EmailConfig{
			Host:     deps.Config.Email.Host,
			Port:     deps.Config.Email.Port,
			Username: deps.Config.Email.Username,
			Password: deps.Config.Email.Password,
			From:     deps.Config.Email.From,
			Subject:  deps.Config.Email.Subject,
			Logger:   deps.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build email sender: %w", err)
		}
		out = append(out, emailSender)
	}
	if deps.Config.WhatsApp.Enabled() {
		whatsappSender, err := senders.NewWhatsAppSender(senders.WhatsAppConfig{
			BaseURL: deps.Config.WhatsApp.BaseURL,
			APIKey:  deps.Config.WhatsApp.APIKey,
			Timeout: deps.Config.WhatsApp.Timeout,
			Logger:  deps.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build whatsapp sender: %w", err)
		}
		out = append(out, whatsappSender)
	}

	if len(out) == 0 {
		return nil, errors.New("no delivery channels configured: set SMTP_* or WHATSAPP_* variables")
	}
	return out, nil
}

// NewServices initializes all application services with their dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps with a database are required")
	}

	repos := buildRepositories(deps)
	keyCache := BuildKeyCache(deps)

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Jobs:     repos.JobRepo,
		Leads:    repos.LeadRepo,
		Messages: repos.MessageRepo,
		Logger:   deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job service: %w", err)
	}

	importSvc, err := service.NewImportService(service.ImportServiceOptions{
		Jobs:     repos.JobRepo,
		Leads:    repos.LeadRepo,
		Messages: repos.MessageRepo,
		KeyCache: keyCache,
		Logger:   deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build import service: %w", err)
	}

	exportSvc, err := service.NewExportService(service.ExportServiceOptions{
		Jobs:     repos.JobRepo,
		Leads:    repos.LeadRepo,
		Messages: repos.MessageRepo,
		Logger:   deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build export service: %w", err)
	}

	return ServiceContainer{
		Jobs:   jobs,
		Import: importSvc,
		Export: exportSvc,
	}, nil
}
