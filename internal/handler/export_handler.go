package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/service"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/response"
)

// ExportHandler serves synchronous downloads and background export jobs.
type ExportHandler struct {
	exports *service.ExportService
	jobs    *service.ExportJobService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService, jobs *service.ExportJobService) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs}
}

// Timetable godoc
// @Summary Download a batch timetable export
// @Description Renders the materialized timetable of a batch as CSV or PDF.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param batchId query string true "Batch ID"
// @Param format query string true "Export format" Enums(csv, pdf)
// @Param date query string false "Reference date (YYYY-MM-DD, defaults to today)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /export/timetable [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	batchID := c.Query("batchId")
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batchId is required"))
		return
	}

	reference, err := parseCalendarDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ExportFormat(c.Query("format"))
	result, err := h.exports.Timetable(c.Request.Context(), batchID, format, reference, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

type createExportJobRequest struct {
	BatchID string `json:"batchId" binding:"required"`
	Format  string `json:"format" binding:"required,oneof=csv pdf"`
	Date    string `json:"date"`
}

// CreateJob godoc
// @Summary Queue a timetable export
// @Description Schedules a background export and returns a job handle to poll.
// @Tags Export
// @Accept json
// @Produce json
// @Param payload body createExportJobRequest true "Job payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /export/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	var req createExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	reference := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		reference = parsed
	}

	job, err := h.jobs.Enqueue(c.Request.Context(), req.BatchID, service.ExportFormat(req.Format), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetJob godoc
// @Summary Get export job status
// @Tags Export
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /export/jobs/{id} [get]
func (h *ExportHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a completed export
// @Description Streams the rendered file referenced by a signed download token.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	download, err := h.jobs.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Data(http.StatusOK, download.ContentType, download.Content)
}
