package httpx

import (
	"fmt"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/service"
)

// ExportHandlers provides HTTP handlers for result export operations.
type ExportHandlers struct {
	Svc *service.ExportService
}

// ExportJob handles HTTP requests to download a job's results. The format
// query parameter selects csv (default), json, or excel; include_messages=true
// adds the outreach log to a json export.
func (h *ExportHandlers) ExportJob(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := service.ExportFormat(q.Get("format"))
	if format == "" {
		format = service.ExportFormatCSV
	}

	result, err := h.Svc.Export(r.Context(), r.PathValue("id"), service.ExportOptions{
		Format:          format,
		IncludeMessages: q.Get("include_messages") == "true",
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		// Client disconnected mid-download; nothing to recover.
		return
	}
}
