package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/service"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
	"github.com/noah-isme/sis-core-api/pkg/response"
)

type timetableGenerator interface {
	GenerateForSchool(ctx context.Context, schoolYearID, schoolID string, cfg dto.GenerateConfig) (*dto.GenerateResult, error)
	GenerateForClass(ctx context.Context, schoolYearID, classID string) (*dto.GenerateResult, error)
}

// GeneratorHandler exposes timetable generation endpoints.
type GeneratorHandler struct {
	service timetableGenerator
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(svc *service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{service: svc}
}

// GenerateSchool godoc
// @Summary Regenerate every class timetable of a school
// @Description Wipes and rebuilds all slots of the school's classes for the year in one transaction. Placement shortfalls are reported in the result, not as errors.
// @Tags Generator
// @Accept json
// @Produce json
// @Param schoolYearId path string true "School year ID"
// @Param schoolId path string true "School ID"
// @Param payload body dto.GenerateConfig false "Grid bounds"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate-school/{schoolYearId}/{schoolId} [post]
func (h *GeneratorHandler) GenerateSchool(c *gin.Context) {
	var cfg dto.GenerateConfig
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation config"))
			return
		}
	}
	result, err := h.service.GenerateForSchool(c.Request.Context(), c.Param("schoolYearId"), c.Param("schoolId"), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GenerateClass godoc
// @Summary Regenerate one class timetable
// @Description Quick path that wipes and rebuilds a single class, picking among free teachers and rooms at random.
// @Tags Generator
// @Produce json
// @Param schoolYearId path string true "School year ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate/{schoolYearId}/{classId} [post]
func (h *GeneratorHandler) GenerateClass(c *gin.Context) {
	result, err := h.service.GenerateForClass(c.Request.Context(), c.Param("schoolYearId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
