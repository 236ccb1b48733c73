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

// TimetableHandler manages timetable entry endpoints.
type TimetableHandler struct {
	service  *service.TimetableService
	calendar *service.CalendarService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService, calendarSvc *service.CalendarService) *TimetableHandler {
	return &TimetableHandler{service: svc, calendar: calendarSvc}
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param batchId query string false "Filter by batch"
// @Param facultyId query string false "Filter by faculty"
// @Param subjectId query string false "Filter by subject"
// @Param dayOfWeek query string false "Filter by day"
// @Param entryType query string false "Filter by type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/entries [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.TimetableEntryFilter
	filter.BatchID = c.Query("batchId")
	filter.FacultyID = c.Query("facultyId")
	filter.SubjectID = c.Query("subjectId")
	filter.DayOfWeek = strings.ToUpper(c.Query("dayOfWeek"))
	filter.EntryType = strings.ToUpper(c.Query("entryType"))
	if from, err := time.ParseInLocation("2006-01-02", c.Query("dateFrom"), time.UTC); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.ParseInLocation("2006-01-02", c.Query("dateTo"), time.UTC); err == nil {
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get timetable entry
// @Tags Timetable
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/entries/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	entry, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.calendar.InvalidateBatch(c.Request.Context(), entry.BatchID)
	response.Created(c, entry)
}

// BulkCreate godoc
// @Summary Bulk create timetable entries
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.BulkCreateEntriesRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/entries/bulk [post]
func (h *TimetableHandler) BulkCreate(c *gin.Context) {
	var req service.BulkCreateEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entries, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// a bulk payload may span batches; invalidate each one once
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.BatchID]; ok {
			continue
		}
		seen[entry.BatchID] = struct{}{}
		h.calendar.InvalidateBatch(c.Request.Context(), entry.BatchID)
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Update godoc
// @Summary Update timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.UpdateEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.calendar.InvalidateBatch(c.Request.Context(), entry.BatchID)
	response.JSON(c, http.StatusOK, entry, nil)
}

// Move godoc
// @Summary Move timetable entry to a new slot
// @Description Reassign the entry after a drag operation; deep-past events refuse with 409
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.MoveEntryRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries/{id}/move [patch]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req service.MoveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.calendar.InvalidateBatch(c.Request.Context(), entry.BatchID)
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete timetable entry
// @Tags Timetable
// @Param id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	entry, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.calendar.InvalidateBatch(c.Request.Context(), entry.BatchID)
	response.NoContent(c)
}
