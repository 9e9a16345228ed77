package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

type periodRepository interface {
	ListRegular(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error)
	ListByYear(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error)
	FindByID(ctx context.Context, id string) (*models.PeriodDefinition, error)
	Create(ctx context.Context, period *models.PeriodDefinition) error
	Update(ctx context.Context, period *models.PeriodDefinition) error
	Delete(ctx context.Context, id string) error
}

type periodSlotCounter interface {
	CountByYearAndTimeRange(ctx context.Context, schoolID, schoolYearID, startTime, endTime string) (int, error)
}

// PeriodService resolves the addressable teaching grid of a school year and
// manages the underlying period definitions.
type PeriodService struct {
	periods   periodRepository
	slots     periodSlotCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService wires period grid dependencies.
func NewPeriodService(periods periodRepository, slots periodSlotCounter, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{periods: periods, slots: slots, validator: validate, logger: logger}
}

// ResolvePeriods returns the regular teaching periods of a school year
// sorted by start time. An empty grid blocks every caller: administrative
// seeding must happen before any timetable work.
func (s *PeriodService) ResolvePeriods(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	if schoolID == "" || schoolYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolId and schoolYearId are required")
	}
	periods, err := s.periods.ListRegular(ctx, schoolID, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period definitions")
	}
	if len(periods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotConfigured, "no period definitions configured for this school year")
	}
	return periods, nil
}

// BuildDisplayMap derives the dense 1..N display indices of regular
// periods from their start-time order. The mapping is recomputed on every
// call and never stored, so it cannot drift from the stored data.
func BuildDisplayMap(periods []models.PeriodDefinition) []models.DisplayPeriod {
	sorted := make([]models.PeriodDefinition, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartTime == sorted[j].StartTime {
			return sorted[i].PeriodNumber < sorted[j].PeriodNumber
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	display := make([]models.DisplayPeriod, 0, len(sorted))
	for i, period := range sorted {
		display = append(display, models.DisplayPeriod{PeriodDefinition: period, DisplayIndex: i + 1})
	}
	return display
}

// PeriodForDisplayIndex translates a 1..N display index into its period
// definition, rejecting indices outside the grid.
func PeriodForDisplayIndex(periods []models.PeriodDefinition, index int) (*models.PeriodDefinition, error) {
	display := BuildDisplayMap(periods)
	if index < 1 || index > len(display) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("display period index %d is outside [1, %d]", index, len(display)))
	}
	period := display[index-1].PeriodDefinition
	return &period, nil
}

// ListWithDisplay returns every period definition of the year, annotating
// regular ones with their derived display index. Non-teaching entries keep
// a zero display index.
func (s *PeriodService) ListWithDisplay(ctx context.Context, schoolID, schoolYearID string) ([]models.DisplayPeriod, error) {
	if schoolID == "" || schoolYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolId and schoolYearId are required")
	}
	all, err := s.periods.ListByYear(ctx, schoolID, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period definitions")
	}

	var regular []models.PeriodDefinition
	for _, period := range all {
		if period.Type == models.PeriodTypeRegular {
			regular = append(regular, period)
		}
	}
	indexByID := make(map[string]int, len(regular))
	for _, entry := range BuildDisplayMap(regular) {
		indexByID[entry.ID] = entry.DisplayIndex
	}

	result := make([]models.DisplayPeriod, 0, len(all))
	for _, period := range all {
		result = append(result, models.DisplayPeriod{PeriodDefinition: period, DisplayIndex: indexByID[period.ID]})
	}
	return result, nil
}

// CreateDefinition seeds one period of the daily skeleton.
func (s *PeriodService) CreateDefinition(ctx context.Context, schoolYearID string, req dto.CreatePeriodDefinitionRequest) (*models.PeriodDefinition, error) {
	if schoolYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period definition payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}

	periodType := models.PeriodType(req.Type)
	if req.Type == "" {
		periodType = models.PeriodTypeRegular
	}

	period := &models.PeriodDefinition{
		SchoolID:     req.SchoolID,
		SchoolYearID: schoolYearID,
		PeriodNumber: req.PeriodNumber,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Type:         periodType,
		Label:        req.Label,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period definition")
	}
	return period, nil
}

// UpdateDefinition edits an existing period definition.
func (s *PeriodService) UpdateDefinition(ctx context.Context, id string, req dto.UpdatePeriodDefinitionRequest) (*models.PeriodDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period definition payload")
	}
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period definition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period definition")
	}

	if req.StartTime != "" {
		period.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		period.EndTime = req.EndTime
	}
	if req.Label != nil {
		period.Label = req.Label
	}
	if period.StartTime >= period.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}

	if err := s.periods.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period definition")
	}
	return period, nil
}

// DeleteDefinition removes a period definition unless timetable slots
// still occupy its time range.
func (s *PeriodService) DeleteDefinition(ctx context.Context, id string) error {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "period definition not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period definition")
	}

	if s.slots != nil {
		referenced, err := s.slots.CountByYearAndTimeRange(ctx, period.SchoolID, period.SchoolYearID, period.StartTime, period.EndTime)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period references")
		}
		if referenced > 0 {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period definition is referenced by %d timetable slots", referenced))
		}
	}

	if err := s.periods.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period definition")
	}
	return nil
}
