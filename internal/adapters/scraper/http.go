// Package scraper provides a client for the external scrape engine.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

const defaultTimeout = 5 * time.Minute

// Config captures the scrape engine endpoint behaviour.
type Config struct {
	BaseURL string        // Required: engine base URL, e.g. http://scraper:8080
	APIKey  string        // Optional: bearer token sent with each request
	Timeout time.Duration // Optional: per-scrape deadline, defaults to 5m
	Client  *http.Client  // Optional: override for tests
	Logger  *slog.Logger  // Optional: structured logger
}

// Client submits search queries to the scrape engine over HTTP and collects
// the resulting business records.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds a scrape engine client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("scrape engine base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	var logger *slog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With("component", "scrape_client")
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  hc,
		logger:  logger,
	}, nil
}

// Run submits the search to the engine and blocks until it finishes or the
// context is cancelled. A non-2xx response or transport failure returns an
// error with no records; a 2xx response with partial=true returns both the
// gathered records and a describing error.
func (c *Client) Run(ctx context.Context, req model.ScrapeRequest) (*model.ScrapeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scrape request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "submitting scrape", "job_id", req.JobID, "query", req.Query)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.ScrapeFailed("scrape engine unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp)
	}

	var result model.ScrapeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.ScrapeFailed("decode scrape response", err)
	}

	if result.Partial {
		return &result, apperrors.ScrapeFailed(
			fmt.Sprintf("scrape stopped early with %d records", len(result.Records)), nil)
	}
	return &result, nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(respBody))
	if readErr != nil || detail == "" {
		detail = resp.Status
	}
	return apperrors.ScrapeFailed(fmt.Sprintf("scrape engine %s: %s", resp.Status, detail), nil)
}
