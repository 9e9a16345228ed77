package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

type slotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	ListByClass(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSlot, error)
	ListByClassDay(ctx context.Context, schoolYearID, classID, dayOfWeek string) ([]models.TimetableSlot, error)
	ListByTeacherDay(ctx context.Context, schoolYearID, teacherID, dayOfWeek string) ([]models.TimetableSlot, error)
	ListByRoomDay(ctx context.Context, schoolYearID, roomID, dayOfWeek string) ([]models.TimetableSlot, error)
	ListByTeacher(ctx context.Context, schoolYearID, teacherID string) ([]models.TimetableSlot, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

type periodResolver interface {
	ResolvePeriods(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error)
}

type timetableClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type gridCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TimetableService validates and applies manual slot writes and serves
// class/teacher timetable views.
type TimetableService struct {
	slots     slotRepository
	classes   timetableClassReader
	periods   periodResolver
	cache     gridCache
	gridTTL   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// TimetableServiceConfig governs view caching.
type TimetableServiceConfig struct {
	GridCacheTTL time.Duration
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	slots slotRepository,
	classes timetableClassReader,
	periods periodResolver,
	cache gridCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GridCacheTTL <= 0 {
		cfg.GridCacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		slots:     slots,
		classes:   classes,
		periods:   periods,
		cache:     cache,
		gridTTL:   cfg.GridCacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// findOverlap returns the first slot in existing whose time range on the
// same day intersects the candidate range, skipping excludeID.
func findOverlap(existing []models.TimetableSlot, dayOfWeek, startTime, endTime, excludeID string) *models.TimetableSlot {
	for i := range existing {
		if existing[i].ID == excludeID {
			continue
		}
		if models.Overlaps(existing[i].DayOfWeek, existing[i].StartTime, existing[i].EndTime, dayOfWeek, startTime, endTime) {
			return &existing[i]
		}
	}
	return nil
}

func conflictError(dimension, message string, slot *models.TimetableSlot) error {
	conflict := models.TimetableConflict{
		SlotID:       slot.ID,
		SchoolYearID: slot.SchoolYearID,
		ClassID:      slot.ClassID,
		SubjectID:    slot.SubjectID,
		Teachers:     slot.Teachers,
		RoomID:       slot.RoomID,
		DayOfWeek:    slot.DayOfWeek,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		Dimension:    dimension,
	}
	return appErrors.Wrap(
		&models.TimetableConflictError{Dimension: dimension, Message: message, Conflict: conflict},
		appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message,
	)
}

// validateWrite runs the class, per-teacher, and room overlap checks for a
// candidate slot, excluding excludeID when updating. Any hit rejects the
// write outright.
func (s *TimetableService) validateWrite(ctx context.Context, candidate *models.TimetableSlot, excludeID string) error {
	classSlots, err := s.slots.ListByClassDay(ctx, candidate.SchoolYearID, candidate.ClassID, candidate.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class slots")
	}
	if hit := findOverlap(classSlots, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime, excludeID); hit != nil {
		return conflictError(models.ConflictDimensionClass,
			fmt.Sprintf("class already has a slot on %s %s-%s", hit.DayOfWeek, hit.StartTime, hit.EndTime), hit)
	}

	for _, teacherID := range candidate.Teachers {
		teacherSlots, err := s.slots.ListByTeacherDay(ctx, candidate.SchoolYearID, teacherID, candidate.DayOfWeek)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher slots")
		}
		if hit := findOverlap(teacherSlots, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime, excludeID); hit != nil {
			return conflictError(models.ConflictDimensionTeacher,
				fmt.Sprintf("teacher %s already teaches on %s %s-%s", teacherID, hit.DayOfWeek, hit.StartTime, hit.EndTime), hit)
		}
	}

	// Home rooms are per-class and never contended; the class check above
	// already protects them.
	if candidate.RoomID != nil && *candidate.RoomID != candidate.ClassID {
		roomSlots, err := s.slots.ListByRoomDay(ctx, candidate.SchoolYearID, *candidate.RoomID, candidate.DayOfWeek)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room slots")
		}
		if hit := findOverlap(roomSlots, candidate.DayOfWeek, candidate.StartTime, candidate.EndTime, excludeID); hit != nil {
			return conflictError(models.ConflictDimensionRoom,
				fmt.Sprintf("room %s is occupied on %s %s-%s", *candidate.RoomID, hit.DayOfWeek, hit.StartTime, hit.EndTime), hit)
		}
	}
	return nil
}

func validateTimeSlot(ts dto.TimeSlotRequest) error {
	if !models.IsValidDayOfWeek(ts.DayOfWeek) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day of week %q", ts.DayOfWeek))
	}
	if ts.StartTime >= ts.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
	}
	return nil
}

// CreateSlot applies a manual single-slot creation after conflict checks.
func (s *TimetableService) CreateSlot(ctx context.Context, req dto.CreateSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if err := validateTimeSlot(req.TimeSlot); err != nil {
		return nil, err
	}

	slot := &models.TimetableSlot{
		SchoolYearID: req.SchoolYearID,
		ScheduleID:   req.ScheduleID,
		ClassID:      req.ClassID,
		SubjectID:    req.SubjectID,
		Teachers:     req.Teachers,
		RoomID:       req.RoomID,
		DayOfWeek:    req.TimeSlot.DayOfWeek,
		StartTime:    req.TimeSlot.StartTime,
		EndTime:      req.TimeSlot.EndTime,
		Status:       models.SlotStatusReady,
	}
	if len(slot.Teachers) == 0 {
		slot.Status = models.SlotStatusDraft
	}

	if err := s.validateWrite(ctx, slot, ""); err != nil {
		return nil, err
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	return slot, nil
}

// UpdateSlot applies a manual single-slot edit after conflict checks, with
// the edited slot excluded from its own overlap scan.
func (s *TimetableService) UpdateSlot(ctx context.Context, id string, req dto.UpdateSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if err := validateTimeSlot(req.TimeSlot); err != nil {
		return nil, err
	}

	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	previousClassID := slot.ClassID

	slot.SchoolYearID = req.SchoolYearID
	slot.ScheduleID = req.ScheduleID
	slot.ClassID = req.ClassID
	slot.SubjectID = req.SubjectID
	slot.Teachers = req.Teachers
	slot.RoomID = req.RoomID
	slot.DayOfWeek = req.TimeSlot.DayOfWeek
	slot.StartTime = req.TimeSlot.StartTime
	slot.EndTime = req.TimeSlot.EndTime
	if len(slot.Teachers) == 0 {
		slot.Status = models.SlotStatusDraft
	} else {
		slot.Status = models.SlotStatusReady
	}

	if err := s.validateWrite(ctx, slot, slot.ID); err != nil {
		return nil, err
	}
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
	}
	s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	if previousClassID != slot.ClassID {
		s.invalidateGrid(ctx, slot.SchoolYearID, previousClassID)
	}
	return slot, nil
}

// DeleteSlot removes a slot by id.
func (s *TimetableService) DeleteSlot(ctx context.Context, id string) error {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	return nil
}

// ListByClass returns a class's slots for a school year.
func (s *TimetableService) ListByClass(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSlot, error) {
	if schoolYearID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and classId are required")
	}
	slots, err := s.slots.ListByClass(ctx, schoolYearID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class slots")
	}
	return slots, nil
}

// ListByTeacher returns a teacher's slots for a school year across classes.
func (s *TimetableService) ListByTeacher(ctx context.Context, schoolYearID, teacherID string) ([]models.TimetableSlot, error) {
	if schoolYearID == "" || teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and teacherId are required")
	}
	slots, err := s.slots.ListByTeacher(ctx, schoolYearID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher slots")
	}
	return slots, nil
}

func gridCacheKey(schoolYearID, classID string) string {
	return fmt.Sprintf("timetable:grid:%s:%s", schoolYearID, classID)
}

func (s *TimetableService) invalidateGrid(ctx context.Context, schoolYearID, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, gridCacheKey(schoolYearID, classID)); err != nil {
		s.logger.Warn("grid cache invalidation failed",
			zap.String("school_year_id", schoolYearID),
			zap.String("class_id", classID),
			zap.Error(err))
	}
}

// GetGrid builds the day-by-period view of a class's week, with display
// indices derived from the period grid. Results are cached per class.
func (s *TimetableService) GetGrid(ctx context.Context, schoolYearID, classID string) (*dto.TimetableGrid, error) {
	if schoolYearID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and classId are required")
	}

	key := gridCacheKey(schoolYearID, classID)
	if s.cache != nil {
		var cached dto.TimetableGrid
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("grid cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	periods, err := s.periods.ResolvePeriods(ctx, class.SchoolID, schoolYearID)
	if err != nil {
		return nil, err
	}
	indexByStart := make(map[string]int, len(periods))
	for _, entry := range BuildDisplayMap(periods) {
		indexByStart[entry.StartTime] = entry.DisplayIndex
	}

	slots, err := s.slots.ListByClass(ctx, schoolYearID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class slots")
	}

	grid := &dto.TimetableGrid{
		ClassID:      classID,
		SchoolYearID: schoolYearID,
		Days:         models.DaysOfWeek,
		Periods:      len(periods),
		Cells:        make(map[string][]dto.GridCell, len(models.DaysOfWeek)),
	}
	for _, slot := range slots {
		grid.Cells[slot.DayOfWeek] = append(grid.Cells[slot.DayOfWeek], dto.GridCell{
			SlotID:       slot.ID,
			SubjectID:    slot.SubjectID,
			Teachers:     slot.Teachers,
			RoomID:       slot.RoomID,
			Status:       string(slot.Status),
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			DisplayIndex: indexByStart[slot.StartTime],
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, grid, s.gridTTL); err != nil {
			s.logger.Warn("grid cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return grid, nil
}

// ImportSlots bulk-creates slots from spreadsheet rows addressed by display
// period index. Rows that fail validation or conflict checking are skipped
// and reported; accepted rows are written individually.
func (s *TimetableService) ImportSlots(ctx context.Context, req dto.ImportTimetableRequest) (*dto.ImportTimetableResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}

	periods, err := s.periods.ResolvePeriods(ctx, req.SchoolID, req.SchoolYearID)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportTimetableResult{}
	for i, row := range req.Rows {
		if !models.IsValidDayOfWeek(row.DayOfWeek) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: unknown day of week %q", i+1, row.DayOfWeek))
			continue
		}
		period, err := PeriodForDisplayIndex(periods, row.DisplayPeriodIndex)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		slot := &models.TimetableSlot{
			SchoolYearID: req.SchoolYearID,
			ClassID:      row.ClassID,
			SubjectID:    row.SubjectID,
			Teachers:     row.Teachers,
			RoomID:       row.RoomID,
			DayOfWeek:    row.DayOfWeek,
			StartTime:    period.StartTime,
			EndTime:      period.EndTime,
			Status:       models.SlotStatusReady,
		}
		if err := s.validateWrite(ctx, slot, ""); err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if err := s.slots.Create(ctx, slot); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import slot")
		}
		result.Imported++
		s.invalidateGrid(ctx, req.SchoolYearID, row.ClassID)
	}
	return result, nil
}
