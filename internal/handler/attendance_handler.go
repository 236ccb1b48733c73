package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/models"
	"github.com/campusops/deptdesk-api/internal/service"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/response"
)

// AttendanceHandler manages attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance for one student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Mark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// BulkMark godoc
// @Summary Mark a whole session
// @Description Atomic mode aborts on the first duplicate; partial_on_error keeps the rest
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkAttendanceRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.BulkMark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param entryId query string false "Filter by entry"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param sessionDate query string false "Filter by session date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AttendanceFilter
	filter.EntryID = c.Query("entryId")
	filter.StudentID = c.Query("studentId")
	if raw := strings.ToUpper(c.Query("status")); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status"))
			return
		}
		filter.Status = &status
	}
	if date, err := time.ParseInLocation("2006-01-02", c.Query("sessionDate"), time.UTC); err == nil {
		filter.SessionDate = &date
	}
	if from, err := time.ParseInLocation("2006-01-02", c.Query("dateFrom"), time.UTC); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.ParseInLocation("2006-01-02", c.Query("dateTo"), time.UTC); err == nil {
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// SessionReport godoc
// @Summary Per-student roster for one session
// @Tags Attendance
// @Produce json
// @Param id path string true "Entry ID"
// @Param date query string true "Session date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions/{id} [get]
func (h *AttendanceHandler) SessionReport(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	rows, err := h.service.SessionReport(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
