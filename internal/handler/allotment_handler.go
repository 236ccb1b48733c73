package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/service"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/response"
)

// AllotmentHandler manages subject allotment endpoints.
type AllotmentHandler struct {
	service *service.AllotmentService
}

// NewAllotmentHandler constructs handler.
func NewAllotmentHandler(svc *service.AllotmentService) *AllotmentHandler {
	return &AllotmentHandler{service: svc}
}

// ListByFaculty godoc
// @Summary List a faculty member's allotments
// @Tags Allotments
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/allotments [get]
func (h *AllotmentHandler) ListByFaculty(c *gin.Context) {
	allotments, err := h.service.ListByFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allotments, nil)
}

// ListByBatch godoc
// @Summary List allotments for a batch
// @Tags Allotments
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/allotments [get]
func (h *AllotmentHandler) ListByBatch(c *gin.Context) {
	allotments, err := h.service.ListByBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allotments, nil)
}

// Create godoc
// @Summary Allot a subject to a faculty member
// @Tags Allotments
// @Accept json
// @Produce json
// @Param payload body service.CreateAllotmentRequest true "Allotment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allotments [post]
func (h *AllotmentHandler) Create(c *gin.Context) {
	var req service.CreateAllotmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	allotment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, allotment)
}

// Delete godoc
// @Summary Remove an allotment
// @Tags Allotments
// @Param id path string true "Allotment ID"
// @Success 204 "No Content"
// @Router /allotments/{id} [delete]
func (h *AllotmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
