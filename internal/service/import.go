package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/dedupe"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
	"github.com/leadgrid/leadgrid/internal/template"
)

const maxImportRows = 5000

// ImportServiceOptions groups dependencies for ImportService.
type ImportServiceOptions struct {
	Jobs     core.JobRepository     // Required: job repository
	Leads    core.LeadRepository    // Required: lead repository
	Messages core.MessageRepository // Required: message repository
	KeyCache core.KeyCache          // Optional: cross-job suppression cache
	Logger   *slog.Logger           // Optional: structured logger
}

// ImportService registers externally sourced leads under synthetic jobs, so
// imported contacts flow through the same outreach queue as scraped ones.
type ImportService struct {
	jobs     core.JobRepository
	leads    core.LeadRepository
	messages core.MessageRepository
	keyCache core.KeyCache
	logger   *slog.Logger
}

// NewImportService constructs a new ImportService.
func NewImportService(opts ImportServiceOptions) (*ImportService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Leads == nil {
		return nil, errors.New("LeadRepository is required")
	}
	if opts.Messages == nil {
		return nil, errors.New("MessageRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "import_service")
	}

	return &ImportService{
		jobs:     opts.Jobs,
		leads:    opts.Leads,
		messages: opts.Messages,
		keyCache: opts.KeyCache,
		logger:   logger,
	}, nil
}

// MustNewImportService constructs a new ImportService and panics on error.
func MustNewImportService(opts ImportServiceOptions) *ImportService {
	svc, err := NewImportService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ImportService: %v", err))
	}
	return svc
}

// ImportCSVRequest describes one CSV lead import.
type ImportCSVRequest struct {
	Reader      io.Reader
	Label       string
	MessageType model.MessageType
	Template    string
	Owner       *string
}

// ImportCSV parses leads from CSV and registers them under a synthetic job.
// The file needs a header row with at least a name column; email, phone,
// website and address columns are picked up when present. When a message
// type and template are given the imported leads are contacted like scraped
// ones.
func (s *ImportService) ImportCSV(ctx context.Context, req ImportCSVRequest) (*model.Job, error) {
	if req.Reader == nil {
		return nil, apperrors.Validation("csv body is required")
	}

	records, err := parseLeadCSV(req.Reader)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.Validation("csv contains no usable rows")
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "csv import"
	}

	contact := req.MessageType != "" && req.MessageType != model.MessageTypeNone
	createReq := &model.CreateJobRequest{
		Query:       label,
		ResultLimit: len(records),
		Source:      "csv_import",
		Mode:        model.JobModeScrapeOnly,
		MessageType: req.MessageType,
		Template:    req.Template,
		Owner:       req.Owner,
	}
	if contact {
		createReq.Mode = model.JobModeScrapeAndContact
	}

	return s.registerImported(ctx, createReq, records)
}

// registerImported stores records under a new synthetic job and, when the
// job requests contact, hands them to the outreach queue.
func (s *ImportService) registerImported(
	ctx context.Context,
	createReq *model.CreateJobRequest,
	records []*model.RawLead,
) (*model.Job, error) {
	createReq.Normalize()
	if err := createReq.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.CreateCompleted(ctx, createReq, model.JobStatusScrapingCompleted)
	if err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	unique := dedupe.Filter(nil, records)
	leads := make([]*model.Lead, 0, len(unique))
	for i, raw := range unique {
		leads = append(leads, &model.Lead{
			JobID:    job.ID,
			Position: i,
			Name:     raw.Name,
			Website:  raw.Website,
			Email:    raw.Email,
			Phone:    raw.Phone,
			Address:  raw.Address,
			Source:   "import",
			DedupKey: dedupe.Key(raw),
		})
	}
	if _, err := s.leads.InsertBatch(ctx, job.ID, leads); err != nil {
		return nil, fmt.Errorf("insert imported leads: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "leads imported",
			"job_id", job.ID,
			"rows", len(records),
			"unique", len(leads),
		)
	}

	if !job.ContactRequested() {
		if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusCompleted); err != nil {
			return nil, fmt.Errorf("complete import job %s: %w", job.ID, err)
		}
		return s.reload(ctx, job)
	}

	var suppressed map[string]bool
	if s.keyCache != nil {
		keys := make([]string, 0, len(leads))
		for _, lead := range leads {
			keys = append(keys, lead.DedupKey)
		}
		if suppressed, err = s.keyCache.Seen(ctx, keys); err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "suppression cache lookup failed", "job_id", job.ID, "error", err)
			}
			suppressed = nil
		}
	}

	msgs, contactedKeys := buildOutreach(job, leads, suppressed)
	if len(msgs) == 0 {
		// All rows suppressed or not contactable; skip contacting entirely.
		if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusCompleted); err != nil {
			return nil, fmt.Errorf("complete import job %s with no messages: %w", job.ID, err)
		}
		return s.reload(ctx, job)
	}
	// Contacting before enqueue, so dispatch workers never see a message
	// whose job the completion guard cannot yet match.
	if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusContacting); err != nil {
		return nil, fmt.Errorf("advance import job %s to contacting: %w", job.ID, err)
	}
	if _, err := s.messages.EnqueueBatch(ctx, msgs); err != nil {
		return nil, fmt.Errorf("enqueue imported messages: %w", err)
	}
	if s.keyCache != nil && len(contactedKeys) > 0 {
		if recordErr := s.keyCache.Record(ctx, contactedKeys); recordErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "suppression cache record failed", "job_id", job.ID, "error", recordErr)
		}
	}
	return s.reload(ctx, job)
}

func (s *ImportService) reload(ctx context.Context, job *model.Job) (*model.Job, error) {
	fresh, err := s.jobs.GetByID(ctx, job.ID)
	if err != nil {
		// The import itself succeeded; fall back to the stale copy.
		return job, nil
	}
	return fresh, nil
}

// BulkMessageRecipient is one target of a bulk message send.
type BulkMessageRecipient struct {
	Name      string `json:"name"`
	Recipient string `json:"recipient"`
}

// BulkMessageRequest describes a template send to an explicit recipient list.
type BulkMessageRequest struct {
	Label      string                 `json:"label,omitempty"`
	Channel    model.Channel          `json:"contact_method"`
	Template   string                 `json:"message_template"`
	Recipients []BulkMessageRecipient `json:"recipients"`
	Owner      *string                `json:"owner,omitempty"`
}

// BulkMessage enqueues a templated message to every recipient under a new
// synthetic job, bypassing scraping entirely.
func (s *ImportService) BulkMessage(ctx context.Context, req *BulkMessageRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if !req.Channel.Valid() {
		return nil, apperrors.Validation("invalid contact method")
	}
	if strings.TrimSpace(req.Template) == "" {
		return nil, apperrors.Validation("message template is required")
	}
	if len(req.Recipients) == 0 {
		return nil, apperrors.Validation("at least one recipient is required")
	}
	if len(req.Recipients) > maxImportRows {
		return nil, apperrors.Validationf("too many recipients (max %d)", maxImportRows)
	}
	for i, rec := range req.Recipients {
		if strings.TrimSpace(rec.Recipient) == "" {
			return nil, apperrors.Validationf("recipient %d has no address", i)
		}
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "bulk message"
	}

	messageType := model.MessageTypeEmail
	if req.Channel == model.ChannelWhatsApp {
		messageType = model.MessageTypeWhatsApp
	}

	job, err := s.jobs.CreateCompleted(ctx, &model.CreateJobRequest{
		Query:       label,
		ResultLimit: len(req.Recipients),
		Source:      "bulk_message",
		Mode:        model.JobModeScrapeAndContact,
		MessageType: messageType,
		Template:    req.Template,
		Owner:       req.Owner,
	}, model.JobStatusScrapingCompleted)
	if err != nil {
		return nil, fmt.Errorf("create bulk message job: %w", err)
	}

	msgs := make([]*model.EnqueueMessage, 0, len(req.Recipients))
	for _, rec := range req.Recipients {
		fields := map[string]string{
			"name":          rec.Name,
			"business_name": rec.Name,
		}
		switch req.Channel {
		case model.ChannelEmail:
			fields["email"] = rec.Recipient
		case model.ChannelWhatsApp:
			fields["phone"] = rec.Recipient
		}
		msgs = append(msgs, &model.EnqueueMessage{
			JobID:     job.ID,
			Channel:   req.Channel,
			Recipient: strings.TrimSpace(rec.Recipient),
			Body:      template.Render(req.Template, fields),
		})
	}

	if _, err := s.jobs.Transition(ctx, job.ID, model.JobStatusScrapingCompleted, model.JobStatusContacting); err != nil {
		return nil, fmt.Errorf("advance bulk job %s to contacting: %w", job.ID, err)
	}
	if _, err := s.messages.EnqueueBatch(ctx, msgs); err != nil {
		return nil, fmt.Errorf("enqueue bulk messages: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "bulk message enqueued",
			"job_id", job.ID,
			"channel", req.Channel,
			"recipients", len(msgs),
		)
	}
	return s.reload(ctx, job)
}

// parseLeadCSV reads lead rows from CSV with a header line. Column matching
// is case-insensitive; rows without a name are dropped.
func parseLeadCSV(r io.Reader) ([]*model.RawLead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("csv header row is required")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := firstColumn(cols, "name", "business_name", "business")
	if !ok {
		return nil, apperrors.Validation("csv must have a name column")
	}

	field := func(row []string, keys ...string) string {
		if idx, found := firstColumn(cols, keys...); found && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var records []*model.RawLead
	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, apperrors.Validationf("csv line %d: %v", line, readErr)
		}
		if len(records) >= maxImportRows {
			return nil, apperrors.Validationf("too many rows (max %d)", maxImportRows)
		}

		if nameIdx >= len(row) {
			continue
		}
		raw := &model.RawLead{
			Name:    strings.TrimSpace(row[nameIdx]),
			Email:   field(row, "email", "e-mail"),
			Phone:   field(row, "phone", "phone_number", "telephone"),
			Website: field(row, "website", "url", "site"),
			Address: field(row, "address", "location"),
			Source:  "csv_import",
		}
		if reviews := field(row, "reviews_count", "reviews"); reviews != "" {
			if n, convErr := strconv.Atoi(reviews); convErr == nil {
				raw.ReviewsCount = n
			}
		}
		if raw.Empty() {
			continue
		}
		records = append(records, raw)
	}
	return records, nil
}

func firstColumn(cols map[string]int, keys ...string) (int, bool) {
	for _, key := range keys {
		if idx, ok := cols[key]; ok {
			return idx, true
		}
	}
	return 0, false
}
