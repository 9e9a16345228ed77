package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.TeachingAssignment) error
	DeleteAssignments(ctx context.Context, teacherID, classID string, subjectIDs []string) error
	DeleteAssignmentByID(ctx context.Context, id string) error
}

type syncSlotRepository interface {
	ListByClassSubjects(ctx context.Context, classID string, subjectIDs []string) ([]models.TimetableSlot, error)
	ListRoomlessBySubject(ctx context.Context, subjectID string) ([]models.TimetableSlot, error)
	SetTeachers(ctx context.Context, slotID string, teachers []string, status models.SlotStatus) error
	SetRoom(ctx context.Context, slotID, roomID string, status models.SlotStatus) error
}

type syncSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type syncRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// SyncService propagates teaching-assignment and room-capability changes
// into existing timetable slots.
type SyncService struct {
	teachers  assignmentRepository
	classes   timetableClassReader
	subjects  syncSubjectReader
	rooms     syncRoomReader
	slots     syncSlotRepository
	cache     gridCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSyncService wires synchronizer dependencies.
func NewSyncService(
	teachers assignmentRepository,
	classes timetableClassReader,
	subjects syncSubjectReader,
	rooms syncRoomReader,
	slots syncSlotRepository,
	cache gridCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *SyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		teachers:  teachers,
		classes:   classes,
		subjects:  subjects,
		rooms:     rooms,
		slots:     slots,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// SyncAfterAssignmentChange patches teaching-assignment rows and the slots
// they govern. Both steps are idempotent so a retried call settles on the
// same state. A missing class or teacher aborts the call before any write.
func (s *SyncService) SyncAfterAssignmentChange(ctx context.Context, req dto.SyncAssignmentRequest) (*dto.SyncResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment sync payload")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSyncInconsistent, "class referenced by assignment sync does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSyncInconsistent, "teacher referenced by assignment sync does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	assignments, err := s.repairAssignments(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case dto.SyncActionAdd:
		return s.applyAdd(ctx, req, assignments)
	case dto.SyncActionRemove:
		return s.applyRemove(ctx, req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be add or remove")
	}
}

// repairAssignments collapses duplicate (class, subject) rows of a
// teacher, keeping the oldest, and returns the surviving set.
func (s *SyncService) repairAssignments(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	assignments, err := s.teachers.ListAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching assignments")
	}

	type pair struct{ classID, subjectID string }
	seen := make(map[pair]bool, len(assignments))
	kept := assignments[:0]
	for _, assignment := range assignments {
		key := pair{classID: assignment.ClassID, subjectID: assignment.SubjectID}
		if seen[key] {
			if err := s.teachers.DeleteAssignmentByID(ctx, assignment.ID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collapse duplicate assignment")
			}
			continue
		}
		seen[key] = true
		kept = append(kept, assignment)
	}
	return kept, nil
}

func (s *SyncService) applyAdd(ctx context.Context, req dto.SyncAssignmentRequest, assignments []models.TeachingAssignment) (*dto.SyncResult, error) {
	existing := make(map[string]bool)
	for _, assignment := range assignments {
		if assignment.ClassID == req.ClassID {
			existing[assignment.SubjectID] = true
		}
	}
	for _, subjectID := range req.SubjectIDs {
		if existing[subjectID] {
			continue
		}
		assignment := &models.TeachingAssignment{
			TeacherID: req.TeacherID,
			ClassID:   req.ClassID,
			SubjectID: subjectID,
		}
		if err := s.teachers.CreateAssignment(ctx, assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teaching assignment")
		}
	}

	slots, err := s.slots.ListByClassSubjects(ctx, req.ClassID, req.SubjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots for sync")
	}

	result := &dto.SyncResult{}
	for _, slot := range slots {
		if slot.HasTeacher(req.TeacherID) || len(slot.Teachers) >= models.MaxTeachersPerSlot {
			continue
		}
		teachers := append([]string{}, slot.Teachers...)
		teachers = append(teachers, req.TeacherID)
		if err := s.slots.SetTeachers(ctx, slot.ID, teachers, models.SlotStatusReady); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add teacher to slot")
		}
		result.SlotsUpdated++
		s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	}
	return result, nil
}

func (s *SyncService) applyRemove(ctx context.Context, req dto.SyncAssignmentRequest) (*dto.SyncResult, error) {
	if err := s.teachers.DeleteAssignments(ctx, req.TeacherID, req.ClassID, req.SubjectIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teaching assignments")
	}

	slots, err := s.slots.ListByClassSubjects(ctx, req.ClassID, req.SubjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots for sync")
	}

	result := &dto.SyncResult{}
	for _, slot := range slots {
		if !slot.HasTeacher(req.TeacherID) {
			continue
		}
		teachers := make([]string, 0, len(slot.Teachers))
		for _, id := range slot.Teachers {
			if id != req.TeacherID {
				teachers = append(teachers, id)
			}
		}
		// The slot survives without a teacher; it just drops back to draft.
		status := models.SlotStatusReady
		if len(teachers) == 0 {
			status = models.SlotStatusDraft
		}
		if err := s.slots.SetTeachers(ctx, slot.ID, teachers, status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove teacher from slot")
		}
		result.SlotsUpdated++
		s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	}
	return result, nil
}

// SyncAfterRoomUpdate backfills a newly capable room into every roomless
// slot of the subject. The fill is blind best-effort: no conflict re-check
// runs, and repeating the call changes nothing further.
func (s *SyncService) SyncAfterRoomUpdate(ctx context.Context, req dto.SyncRoomRequest) (*dto.SyncResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room sync payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSyncInconsistent, "subject referenced by room sync does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSyncInconsistent, "room referenced by room sync does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	slots, err := s.slots.ListRoomlessBySubject(ctx, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roomless slots")
	}

	result := &dto.SyncResult{}
	for _, slot := range slots {
		if err := s.slots.SetRoom(ctx, slot.ID, req.RoomID, models.SlotStatusReady); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill room")
		}
		result.SlotsUpdated++
		s.invalidateGrid(ctx, slot.SchoolYearID, slot.ClassID)
	}
	return result, nil
}

func (s *SyncService) invalidateGrid(ctx context.Context, schoolYearID, classID string) {
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
