// Package httpx provides HTTP handlers and utilities for the leadgrid job API.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	"github.com/leadgrid/leadgrid/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc *service.JobService
}

// CreateJob handles HTTP requests to submit a new search job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

// GetJob handles HTTP requests for a job's detail, including its results.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// GetJobStatus handles HTTP polling requests for a job's progress.
func (h *JobHandlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.StatusView(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// ListJobs handles HTTP requests to list jobs, optionally filtered by status
// and owner.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	opts := &model.JobListOptions{
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.JobStatus(raw)
		opts.Status = &status
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		opts.Owner = &owner
	}

	jobs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// CancelJob handles HTTP requests to cancel a running job.
func (h *JobHandlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Cancel(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cancel_requested"})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
