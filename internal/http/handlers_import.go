package httpx

import (
	"net/http"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	"github.com/leadgrid/leadgrid/internal/service"
)

// maxImportBodyBytes caps CSV uploads; larger files are rejected before parse.
const maxImportBodyBytes = 10 << 20

// ImportHandlers provides HTTP handlers for lead import operations.
type ImportHandlers struct {
	Svc *service.ImportService
}

// ImportCSV handles HTTP requests to import leads from an uploaded CSV file.
// The CSV comes in the request body; import options ride the query string.
func (h *ImportHandlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ImportCSVRequest{
		Reader:      http.MaxBytesReader(w, r.Body, maxImportBodyBytes),
		Label:       q.Get("label"),
		MessageType: model.MessageType(q.Get("message_type")),
		Template:    q.Get("message_template"),
	}
	if owner := q.Get("owner"); owner != "" {
		req.Owner = &owner
	}

	job, err := h.Svc.ImportCSV(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

// BulkMessage handles HTTP requests to message a caller-supplied recipient
// list without a scrape phase.
func (h *ImportHandlers) BulkMessage(w http.ResponseWriter, r *http.Request) {
	var req service.BulkMessageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.BulkMessage(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}
