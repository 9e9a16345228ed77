package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

func TestExportServiceRendersCSVGrid(t *testing.T) {
	service := NewExportService(&gridProviderStub{grid: sampleGrid()}, zap.NewNop())

	file, err := service.ExportGrid(context.Background(), "year-1", "class-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "timetable_class-1.csv", file.FileName)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3, "header plus one row per display period")
	assert.Equal(t, "Period,Monday,Tuesday,Wednesday,Thursday,Friday,Saturday,Sunday", lines[0])
	assert.Contains(t, lines[1], "math (teacher-1)")
	assert.Contains(t, lines[2], "physics (teacher-1, teacher-2)")
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	service := NewExportService(&gridProviderStub{grid: sampleGrid()}, zap.NewNop())

	file, err := service.ExportGrid(context.Background(), "year-1", "class-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
}

func TestExportServiceRendersPDFGrid(t *testing.T) {
	service := NewExportService(&gridProviderStub{grid: sampleGrid()}, zap.NewNop())

	file, err := service.ExportGrid(context.Background(), "year-1", "class-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "timetable_class-1.pdf", file.FileName)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Content)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	service := NewExportService(&gridProviderStub{grid: sampleGrid()}, zap.NewNop())

	_, err := service.ExportGrid(context.Background(), "year-1", "class-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServicePropagatesGridErrors(t *testing.T) {
	service := NewExportService(&gridProviderStub{
		err: appErrors.Clone(appErrors.ErrNotConfigured, "no period definitions configured for this school year"),
	}, zap.NewNop())

	_, err := service.ExportGrid(context.Background(), "year-1", "class-1", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type gridProviderStub struct {
	grid *dto.TimetableGrid
	err  error
}

func (s *gridProviderStub) GetGrid(ctx context.Context, schoolYearID, classID string) (*dto.TimetableGrid, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.grid, nil
}

func sampleGrid() *dto.TimetableGrid {
	return &dto.TimetableGrid{
		ClassID:      "class-1",
		SchoolYearID: "year-1",
		Days:         models.DaysOfWeek,
		Periods:      2,
		Cells: map[string][]dto.GridCell{
			"Monday": {
				{SlotID: "slot-1", SubjectID: "math", Teachers: []string{"teacher-1"},
					Status: "ready", StartTime: "08:00", EndTime: "08:45", DisplayIndex: 1},
			},
			"Tuesday": {
				{SlotID: "slot-2", SubjectID: "physics", Teachers: []string{"teacher-1", "teacher-2"},
					Status: "ready", StartTime: "09:00", EndTime: "09:45", DisplayIndex: 2},
			},
		},
	}
}
