package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

const scheduleDateLayout = "2006-01-02"

type scheduleRepository interface {
	ListByClassYear(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSchedule, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSchedule, error)
	FindActiveOverlapping(ctx context.Context, schoolYearID, classID string, start, end time.Time, excludeID string) (*models.TimetableSchedule, error)
	Create(ctx context.Context, schedule *models.TimetableSchedule) error
	Update(ctx context.Context, schedule *models.TimetableSchedule) error
	DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type scheduleSlotRepository interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	DeleteByScheduleWithTx(ctx context.Context, tx *sqlx.Tx, scheduleID string) (int, error)
}

// ScheduleService manages named, date-ranged timetable versions. At most
// one active version per class may cover any calendar date.
type ScheduleService struct {
	schedules scheduleRepository
	slots     scheduleSlotRepository
	cache     gridCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService wires schedule version dependencies.
func NewScheduleService(schedules scheduleRepository, slots scheduleSlotRepository, cache gridCache, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, slots: slots, cache: cache, validator: validate, logger: logger}
}

// List returns the schedule versions of a class, newest first.
func (s *ScheduleService) List(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSchedule, error) {
	if schoolYearID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and classId are required")
	}
	schedules, err := s.schedules.ListByClassYear(ctx, schoolYearID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable schedules")
	}
	return schedules, nil
}

// Get loads one schedule version.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.TimetableSchedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable schedule")
	}
	return schedule, nil
}

func parseScheduleDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(scheduleDateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid startDate %q, expected YYYY-MM-DD", start))
	}
	endDate, err := time.Parse(scheduleDateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid endDate %q, expected YYYY-MM-DD", end))
	}
	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be before endDate")
	}
	return startDate, endDate, nil
}

// ensureNoActiveOverlap rejects the write when another active version of
// the class covers any date of the window.
func (s *ScheduleService) ensureNoActiveOverlap(ctx context.Context, schoolYearID, classID string, start, end time.Time, excludeID string) error {
	overlapping, err := s.schedules.FindActiveOverlapping(ctx, schoolYearID, classID, start, end, excludeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule overlap")
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("active schedule %q already covers %s to %s", overlapping.Name,
			overlapping.StartDate.Format(scheduleDateLayout), overlapping.EndDate.Format(scheduleDateLayout)))
}

// Create opens a new active schedule version for a class.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.TimetableSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	start, end, err := parseScheduleDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActiveOverlap(ctx, req.SchoolYearID, req.ClassID, start, end, ""); err != nil {
		return nil, err
	}

	schedule := &models.TimetableSchedule{
		Name:         req.Name,
		SchoolYearID: req.SchoolYearID,
		ClassID:      req.ClassID,
		StartDate:    start,
		EndDate:      end,
		Status:       models.ScheduleStatusActive,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable schedule")
	}
	return schedule, nil
}

// Update edits a schedule version, re-running the overlap check against
// the other versions of the class whenever the result is active.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.UpdateScheduleRequest) (*models.TimetableSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		schedule.Name = req.Name
	}
	startRaw := schedule.StartDate.Format(scheduleDateLayout)
	endRaw := schedule.EndDate.Format(scheduleDateLayout)
	if req.StartDate != "" {
		startRaw = req.StartDate
	}
	if req.EndDate != "" {
		endRaw = req.EndDate
	}
	start, end, err := parseScheduleDates(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	schedule.StartDate = start
	schedule.EndDate = end
	if req.Status != "" {
		schedule.Status = models.ScheduleStatus(req.Status)
	}

	if schedule.Status == models.ScheduleStatusActive {
		if err := s.ensureNoActiveOverlap(ctx, schedule.SchoolYearID, schedule.ClassID, start, end, schedule.ID); err != nil {
			return nil, err
		}
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable schedule")
	}
	return schedule, nil
}

// AttachFile records the spreadsheet upload backing a schedule version.
func (s *ScheduleService) AttachFile(ctx context.Context, id string, req dto.AttachScheduleFileRequest) (*models.TimetableSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attachment payload")
	}
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.FileURL = &req.FileURL
	schedule.FileName = &req.FileName
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable schedule")
	}
	return schedule, nil
}

// Delete removes a schedule version and cascades its owned slots in one
// transaction.
func (s *ScheduleService) Delete(ctx context.Context, id string) (*dto.DeleteScheduleResult, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.slots.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.slots.DeleteByScheduleWithTx(ctx, tx, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slots")
		return nil, err
	}
	if err = s.schedules.DeleteWithTx(ctx, tx, id); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable schedule")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule delete")
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, gridCacheKey(schedule.SchoolYearID, schedule.ClassID)); cacheErr != nil {
			s.logger.Warn("grid cache invalidation failed", zap.String("class_id", schedule.ClassID), zap.Error(cacheErr))
		}
	}
	return &dto.DeleteScheduleResult{DeletedSlots: deleted}, nil
}
