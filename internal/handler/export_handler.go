package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-core-api/internal/service"
	"github.com/noah-isme/sis-core-api/pkg/response"
)

type gridExporter interface {
	ExportGrid(ctx context.Context, schoolYearID, classID, format string) (*service.ExportFile, error)
}

// ExportHandler exposes timetable download endpoints.
type ExportHandler struct {
	service gridExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Download a class timetable as CSV or PDF
// @Tags Timetable
// @Produce octet-stream
// @Param schoolYearId path string true "School year ID"
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /timetables/export/{schoolYearId}/{classId} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	file, err := h.service.ExportGrid(c.Request.Context(), c.Param("schoolYearId"), c.Param("classId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(200, file.ContentType, file.Content)
}
