package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	"github.com/noah-isme/sis-core-api/internal/service"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
	"github.com/noah-isme/sis-core-api/pkg/response"
)

type timetableManager interface {
	CreateSlot(ctx context.Context, req dto.CreateSlotRequest) (*models.TimetableSlot, error)
	UpdateSlot(ctx context.Context, id string, req dto.UpdateSlotRequest) (*models.TimetableSlot, error)
	DeleteSlot(ctx context.Context, id string) error
	ListByClass(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSlot, error)
	ListByTeacher(ctx context.Context, schoolYearID, teacherID string) ([]models.TimetableSlot, error)
	GetGrid(ctx context.Context, schoolYearID, classID string) (*dto.TimetableGrid, error)
	ImportSlots(ctx context.Context, req dto.ImportTimetableRequest) (*dto.ImportTimetableResult, error)
}

// TimetableHandler exposes manual slot endpoints and timetable views.
type TimetableHandler struct {
	service timetableManager
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Create godoc
// @Summary Create a timetable slot
// @Description Rejects the write with 409 when the slot overlaps an existing one for the class, any teacher, or the room.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Update a timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.UpdateSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req dto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.UpdateSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// Delete godoc
// @Summary Delete a timetable slot
// @Tags Timetable
// @Param id path string true "Slot ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByClass godoc
// @Summary List a class's timetable slots
// @Tags Timetable
// @Produce json
// @Param classId path string true "Class ID"
// @Param schoolYearId query string true "School year ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/class/{classId} [get]
func (h *TimetableHandler) ListByClass(c *gin.Context) {
	slots, err := h.service.ListByClass(c.Request.Context(), c.Query("schoolYearId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// ListByTeacher godoc
// @Summary List a teacher's timetable slots across classes
// @Tags Timetable
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param schoolYearId path string true "School year ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/teacher/{teacherId}/{schoolYearId} [get]
func (h *TimetableHandler) ListByTeacher(c *gin.Context) {
	slots, err := h.service.ListByTeacher(c.Request.Context(), c.Param("schoolYearId"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Grid godoc
// @Summary Get the day-by-period grid of one class
// @Tags Timetable
// @Produce json
// @Param schoolYearId path string true "School year ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/grid/{schoolYearId}/{classId} [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	grid, err := h.service.GetGrid(c.Request.Context(), c.Param("schoolYearId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// Import godoc
// @Summary Bulk-import timetable slots from spreadsheet rows
// @Description Rows address periods by 1..N display index; rows failing validation or conflict checks are skipped and reported.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ImportTimetableRequest true "Import payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/import [post]
func (h *TimetableHandler) Import(c *gin.Context) {
	var req dto.ImportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.service.ImportSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
