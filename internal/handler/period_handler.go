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

type periodProvider interface {
	ListWithDisplay(ctx context.Context, schoolID, schoolYearID string) ([]models.DisplayPeriod, error)
	CreateDefinition(ctx context.Context, schoolYearID string, req dto.CreatePeriodDefinitionRequest) (*models.PeriodDefinition, error)
	UpdateDefinition(ctx context.Context, id string, req dto.UpdatePeriodDefinitionRequest) (*models.PeriodDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

// PeriodHandler exposes period grid endpoints.
type PeriodHandler struct {
	service periodProvider
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(svc *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List period definitions with display indices
// @Tags Timetable
// @Produce json
// @Param schoolYearId path string true "School year ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/period-definitions/{schoolYearId} [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.service.ListWithDisplay(c.Request.Context(), c.Query("schoolId"), c.Param("schoolYearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods)
}

// Create godoc
// @Summary Create a period definition
// @Tags Timetable
// @Accept json
// @Produce json
// @Param schoolYearId path string true "School year ID"
// @Param payload body dto.CreatePeriodDefinitionRequest true "Period definition payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/period-definitions/{schoolYearId} [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.CreatePeriodDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period definition payload"))
		return
	}
	period, err := h.service.CreateDefinition(c.Request.Context(), c.Param("schoolYearId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update a period definition
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Period definition ID"
// @Param payload body dto.UpdatePeriodDefinitionRequest true "Period definition payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/period-definitions/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req dto.UpdatePeriodDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period definition payload"))
		return
	}
	period, err := h.service.UpdateDefinition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period)
}

// Delete godoc
// @Summary Delete an unreferenced period definition
// @Tags Timetable
// @Param id path string true "Period definition ID"
// @Success 204
// @Router /timetables/period-definitions/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteDefinition(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
