package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/service"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/response"
)

// SettingsHandler manages department reference data endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// ListTimeSlots godoc
// @Summary List time slots
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/time-slots [get]
func (h *SettingsHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CreateTimeSlot godoc
// @Summary Create time slot
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.TimeSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/time-slots [post]
func (h *SettingsHandler) CreateTimeSlot(c *gin.Context) {
	var req service.TimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.CreateTimeSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// UpdateTimeSlot godoc
// @Summary Update time slot
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.TimeSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Router /settings/time-slots/{id} [put]
func (h *SettingsHandler) UpdateTimeSlot(c *gin.Context) {
	var req service.TimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.UpdateTimeSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// DeleteTimeSlot godoc
// @Summary Delete time slot
// @Tags Settings
// @Param id path string true "Slot ID"
// @Success 204 "No Content"
// @Router /settings/time-slots/{id} [delete]
func (h *SettingsHandler) DeleteTimeSlot(c *gin.Context) {
	if err := h.service.DeleteTimeSlot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/subjects [get]
func (h *SettingsHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /settings/subjects [post]
func (h *SettingsHandler) CreateSubject(c *gin.Context) {
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// UpdateSubject godoc
// @Summary Update subject
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /settings/subjects/{id} [put]
func (h *SettingsHandler) UpdateSubject(c *gin.Context) {
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.UpdateSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags Settings
// @Param id path string true "Subject ID"
// @Success 204 "No Content"
// @Router /settings/subjects/{id} [delete]
func (h *SettingsHandler) DeleteSubject(c *gin.Context) {
	if err := h.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListFaculty godoc
// @Summary List faculty members
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/faculty [get]
func (h *SettingsHandler) ListFaculty(c *gin.Context) {
	members, err := h.service.ListFaculty(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// CreateFaculty godoc
// @Summary Create faculty member
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.FacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /settings/faculty [post]
func (h *SettingsHandler) CreateFaculty(c *gin.Context) {
	var req service.FacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.CreateFaculty(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateFaculty godoc
// @Summary Update faculty member
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.FacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /settings/faculty/{id} [put]
func (h *SettingsHandler) UpdateFaculty(c *gin.Context) {
	var req service.FacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.UpdateFaculty(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// DeleteFaculty godoc
// @Summary Delete faculty member
// @Tags Settings
// @Param id path string true "Faculty ID"
// @Success 204 "No Content"
// @Router /settings/faculty/{id} [delete]
func (h *SettingsHandler) DeleteFaculty(c *gin.Context) {
	if err := h.service.DeleteFaculty(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBatches godoc
// @Summary List batches
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/batches [get]
func (h *SettingsHandler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// CreateBatch godoc
// @Summary Create batch
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.BatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /settings/batches [post]
func (h *SettingsHandler) CreateBatch(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// UpdateBatch godoc
// @Summary Update batch
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.BatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /settings/batches/{id} [put]
func (h *SettingsHandler) UpdateBatch(c *gin.Context) {
	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.service.UpdateBatch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// DeleteBatch godoc
// @Summary Delete batch
// @Tags Settings
// @Param id path string true "Batch ID"
// @Success 204 "No Content"
// @Router /settings/batches/{id} [delete]
func (h *SettingsHandler) DeleteBatch(c *gin.Context) {
	if err := h.service.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetDepartment godoc
// @Summary Get department profile
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/department [get]
func (h *SettingsHandler) GetDepartment(c *gin.Context) {
	dept, err := h.service.GetDepartment(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}

// UpdateDepartment godoc
// @Summary Update department profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /settings/department [put]
func (h *SettingsHandler) UpdateDepartment(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	dept, err := h.service.UpdateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}
