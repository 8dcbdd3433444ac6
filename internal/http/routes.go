package httpx

import (
	"log/slog"
	"net/http"

	"github.com/leadgrid/leadgrid/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs   *service.JobService
	Import *service.ImportService
	Export *service.ExportService
	Logger *slog.Logger // Logger for request errors (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Jobs}
	importHandlers := &ImportHandlers{Svc: services.Import}
	exportHandlers := &ExportHandlers{Svc: services.Export}

	registerJobRoutes(mux, jobHandlers)
	registerImportRoutes(mux, importHandlers)
	registerExportRoutes(mux, exportHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/search", h.CreateJob)
	mux.HandleFunc("GET /api/search", h.ListJobs)
	mux.HandleFunc("GET /api/search/{id}", h.GetJob)
	mux.HandleFunc("GET /api/search/{id}/status", h.GetJobStatus)
	mux.HandleFunc("POST /api/search/{id}/cancel", h.CancelJob)
}

func registerImportRoutes(mux *http.ServeMux, h *ImportHandlers) {
	mux.HandleFunc("POST /api/import/csv", h.ImportCSV)
	mux.HandleFunc("POST /api/import/bulk-message", h.BulkMessage)
}

func registerExportRoutes(mux *http.ServeMux, h *ExportHandlers) {
	mux.HandleFunc("GET /api/export/{id}", h.ExportJob)
}
