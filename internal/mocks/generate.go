// Package mocks provides mock implementations for testing the leadgrid job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository
// and adapter interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/leadgrid/leadgrid/internal/core JobRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_maintenance_repository_mock.go github.com/leadgrid/leadgrid/internal/core JobMaintenanceRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=lead_repository_mock.go github.com/leadgrid/leadgrid/internal/core LeadRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=message_repository_mock.go github.com/leadgrid/leadgrid/internal/core MessageRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=scraper_mock.go github.com/leadgrid/leadgrid/internal/core Scraper

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=channel_sender_mock.go github.com/leadgrid/leadgrid/internal/core ChannelSender

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=key_cache_mock.go github.com/leadgrid/leadgrid/internal/core KeyCache

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=rate_limiter_mock.go github.com/leadgrid/leadgrid/internal/core RateLimiter
