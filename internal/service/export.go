package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tealeg/xlsx/v2"

	"github.com/leadgrid/leadgrid/internal/core"
	"github.com/leadgrid/leadgrid/internal/data"
	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	// ExportFormatCSV emits a spreadsheet-friendly CSV file.
	ExportFormatCSV ExportFormat = "csv"
	// ExportFormatJSON emits the leads as a JSON array.
	ExportFormatJSON ExportFormat = "json"
	// ExportFormatExcel emits an XLSX workbook with one leads sheet.
	ExportFormatExcel ExportFormat = "excel"
)

// Valid returns true if the ExportFormat is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatJSON || f == ExportFormatExcel
}

// ExportResult is a rendered export ready to be served as a download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportServiceOptions groups dependencies for ExportService.
type ExportServiceOptions struct {
	Jobs     core.JobRepository     // Required: job repository
	Leads    core.LeadRepository    // Required: lead repository
	Messages core.MessageRepository // Required: message repository
	Logger   *slog.Logger           // Optional: structured logger
}

// ExportService renders a job's result set for download.
type ExportService struct {
	jobs     core.JobRepository
	leads    core.LeadRepository
	messages core.MessageRepository
	logger   *slog.Logger
}

// NewExportService constructs a new ExportService.
func NewExportService(opts ExportServiceOptions) (*ExportService, error) {
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
		logger = opts.Logger.With("component", "export_service")
	}

	return &ExportService{
		jobs:     opts.Jobs,
		leads:    opts.Leads,
		messages: opts.Messages,
		logger:   logger,
	}, nil
}

// MustNewExportService constructs a new ExportService and panics on error.
func MustNewExportService(opts ExportServiceOptions) *ExportService {
	svc, err := NewExportService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ExportService: %v", err))
	}
	return svc
}

// ExportOptions selects the format and scope of one export.
type ExportOptions struct {
	Format ExportFormat

	// IncludeMessages adds the job's outreach log to a JSON export. CSV
	// exports stay leads-only regardless.
	IncludeMessages bool
}

// Export renders the job's leads in the requested format. Only jobs whose
// scrape phase finished successfully can be exported.
func (s *ExportService) Export(ctx context.Context, jobID string, opts ExportOptions) (*ExportResult, error) {
	format := opts.Format
	if !format.Valid() {
		return nil, apperrors.Validationf("unsupported export format %q", format)
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", jobID)
		}
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if !exportable(job.Status) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("job %s is %s and cannot be exported yet", jobID, job.Status),
		)
	}

	leads, err := s.leads.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list leads for job %s: %w", jobID, err)
	}

	var msgs []*model.OutreachMessage
	if opts.IncludeMessages && format == ExportFormatJSON {
		if msgs, err = s.messages.ListByJob(ctx, jobID); err != nil {
			return nil, fmt.Errorf("list messages for job %s: %w", jobID, err)
		}
	}

	var result *ExportResult
	switch format {
	case ExportFormatCSV:
		result, err = renderCSV(jobID, leads)
	case ExportFormatJSON:
		result, err = renderJSON(jobID, leads, msgs, opts.IncludeMessages)
	case ExportFormatExcel:
		result, err = renderXLSX(jobID, leads)
	}
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job exported",
			"job_id", jobID,
			"format", format,
			"leads", len(leads),
		)
	}
	return result, nil
}

func exportable(status model.JobStatus) bool {
	switch status {
	case model.JobStatusScrapingCompleted, model.JobStatusContacting, model.JobStatusCompleted:
		return true
	default:
		return false
	}
}

var csvExportHeader = []string{
	"position", "name", "website", "email", "phone", "address",
	"reviews_count", "reviews_average", "place_type", "opening_hours", "source",
}

func renderCSV(jobID string, leads []*model.Lead) (*ExportResult, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvExportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, lead := range leads {
		row := []string{
			strconv.Itoa(lead.Position),
			lead.Name,
			lead.Website,
			lead.Email,
			lead.Phone,
			lead.Address,
			strconv.Itoa(lead.ReviewsCount),
			strconv.FormatFloat(lead.ReviewsAverage, 'f', -1, 64),
			lead.PlaceType,
			lead.OpeningHours,
			lead.Source,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &ExportResult{
		Filename:    "leads-" + jobID + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func renderXLSX(jobID string, leads []*model.Lead) (*ExportResult, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return nil, fmt.Errorf("add xlsx sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range csvExportHeader {
		header.AddCell().SetString(col)
	}
	for _, lead := range leads {
		row := sheet.AddRow()
		row.AddCell().SetInt(lead.Position)
		row.AddCell().SetString(lead.Name)
		row.AddCell().SetString(lead.Website)
		row.AddCell().SetString(lead.Email)
		row.AddCell().SetString(lead.Phone)
		row.AddCell().SetString(lead.Address)
		row.AddCell().SetInt(lead.ReviewsCount)
		row.AddCell().SetFloat(lead.ReviewsAverage)
		row.AddCell().SetString(lead.PlaceType)
		row.AddCell().SetString(lead.OpeningHours)
		row.AddCell().SetString(lead.Source)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return &ExportResult{
		Filename:    "leads-" + jobID + ".xlsx",
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

func renderJSON(
	jobID string,
	leads []*model.Lead,
	msgs []*model.OutreachMessage,
	includeMessages bool,
) (*ExportResult, error) {
	if leads == nil {
		leads = []*model.Lead{}
	}

	var payload any = leads
	if includeMessages {
		if msgs == nil {
			msgs = []*model.OutreachMessage{}
		}
		payload = map[string]any{"results": leads, "messages": msgs}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal leads: %w", err)
	}
	return &ExportResult{
		Filename:    "leads-" + jobID + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}
