package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/mock/gomock"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

func TestExportJob_CSVDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, m := newTestRouter(t, ctrl)
	m.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
		ID:     "job-1",
		Status: model.JobStatusCompleted,
	}, nil)
	m.leads.EXPECT().ListByJob(gomock.Any(), "job-1").Return([]*model.Lead{
		{Position: 0, Name: "Acme", Email: "acme@example.com"},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="leads-job-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.Contains(w.Body.String(), "Acme"))
}

func TestExportJob_JSONFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, m := newTestRouter(t, ctrl)
	m.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
		ID:     "job-1",
		Status: model.JobStatusScrapingCompleted,
	}, nil)
	m.leads.EXPECT().ListByJob(gomock.Any(), "job-1").Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1?format=json", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestExportJob_ExcelDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, m := newTestRouter(t, ctrl)
	m.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
		ID:     "job-1",
		Status: model.JobStatusCompleted,
	}, nil)
	m.leads.EXPECT().ListByJob(gomock.Any(), "job-1").Return([]*model.Lead{
		{Position: 0, Name: "Acme", Email: "acme@example.com"},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1?format=excel", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="leads-job-1.xlsx"`, w.Header().Get("Content-Disposition"))

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	sheet, ok := file.Sheet["Leads"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Acme", sheet.Rows[1].Cells[1].String())
}

func TestExportJob_JSONIncludesMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, m := newTestRouter(t, ctrl)
	m.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
		ID:     "job-1",
		Status: model.JobStatusCompleted,
	}, nil)
	m.leads.EXPECT().ListByJob(gomock.Any(), "job-1").Return(nil, nil)
	m.messages.EXPECT().ListByJob(gomock.Any(), "job-1").Return([]*model.OutreachMessage{
		{ID: "msg-1", JobID: "job-1", Status: model.MessageStatusSent},
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1?format=json&include_messages=true", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages"`)
	assert.Contains(t, w.Body.String(), "msg-1")
}

func TestExportJob_UnsupportedFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _ := newTestRouter(t, ctrl)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1?format=xml", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportJob_NotReadyConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, m := newTestRouter(t, ctrl)
	m.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
		ID:     "job-1",
		Status: model.JobStatusScraping,
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/export/job-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "conflict")
}
