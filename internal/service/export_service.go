package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
	"github.com/noah-isme/sis-core-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type gridProvider interface {
	GetGrid(ctx context.Context, schoolYearID, classID string) (*dto.TimetableGrid, error)
}

// ExportService renders class timetable grids into downloadable files.
type ExportService struct {
	grids  gridProvider
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// NewExportService wires export dependencies.
func NewExportService(grids gridProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grids:  grids,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ExportGrid renders the timetable of one class as CSV or PDF, one row per
// display period and one column per day.
func (s *ExportService) ExportGrid(ctx context.Context, schoolYearID, classID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	grid, err := s.grids.GetGrid(ctx, schoolYearID, classID)
	if err != nil {
		return nil, err
	}

	dataset := buildGridDataset(grid)
	switch format {
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable %s", classID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("timetable_%s.pdf", classID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("timetable_%s.csv", classID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
}

// buildGridDataset flattens a grid into period-rows against day-columns.
func buildGridDataset(grid *dto.TimetableGrid) export.Dataset {
	headers := append([]string{"Period"}, grid.Days...)

	cellByDayPeriod := make(map[string]map[int]dto.GridCell)
	indices := make(map[int]bool)
	for day, cells := range grid.Cells {
		for _, cell := range cells {
			if cellByDayPeriod[day] == nil {
				cellByDayPeriod[day] = make(map[int]dto.GridCell)
			}
			cellByDayPeriod[day][cell.DisplayIndex] = cell
			indices[cell.DisplayIndex] = true
		}
	}
	for i := 1; i <= grid.Periods; i++ {
		indices[i] = true
	}

	ordered := make([]int, 0, len(indices))
	for index := range indices {
		if index > 0 {
			ordered = append(ordered, index)
		}
	}
	sort.Ints(ordered)

	rows := make([]map[string]string, 0, len(ordered))
	for _, index := range ordered {
		row := map[string]string{"Period": fmt.Sprintf("%d", index)}
		for _, day := range grid.Days {
			if cell, ok := cellByDayPeriod[day][index]; ok {
				value := cell.SubjectID
				if len(cell.Teachers) > 0 {
					value = fmt.Sprintf("%s (%s)", cell.SubjectID, strings.Join(cell.Teachers, ", "))
				}
				row[day] = value
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
