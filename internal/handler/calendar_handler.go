package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/service"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/response"
)

// CalendarHandler serves materialized calendar events.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// WeekEvents godoc
// @Summary Calendar events for one week
// @Description Dated entries falling in the Sunday-through-Saturday week containing date
// @Tags Calendar
// @Produce json
// @Param batchId query string true "Batch ID"
// @Param date query string false "Selected date (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Envelope
// @Router /calendar/events [get]
func (h *CalendarHandler) WeekEvents(c *gin.Context) {
	batchID := c.Query("batchId")
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batchId is required"))
		return
	}
	selected, err := parseCalendarDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.service.WeekEvents(c.Request.Context(), batchID, selected, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// ExpandedEvents godoc
// @Summary Materialized events across the projection horizon
// @Description Recurring entries expand to one event per week across the anchored horizon
// @Tags Calendar
// @Produce json
// @Param batchId query string true "Batch ID"
// @Param date query string false "Reference date (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Envelope
// @Router /calendar/expanded [get]
func (h *CalendarHandler) ExpandedEvents(c *gin.Context) {
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

	events, err := h.service.ExpandedEvents(c.Request.Context(), batchID, reference, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
