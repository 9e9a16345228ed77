package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

type generatorClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListBySchoolYear(ctx context.Context, schoolID, schoolYearID string) ([]models.ClassDetail, error)
}

type curriculumReader interface {
	ListSubjects(ctx context.Context, curriculumID string) ([]models.SubjectDemand, error)
	ListByEducationalSystem(ctx context.Context, educationalSystemID string) ([]models.Curriculum, error)
}

type gradeSubjectReader interface {
	ListByGradeLevel(ctx context.Context, schoolID, gradeLevelID string) ([]models.Subject, error)
}

type eligibleTeacherReader interface {
	ListEligible(ctx context.Context, schoolID, subjectID, gradeLevelID string) ([]models.Teacher, error)
}

type subjectRoomReader interface {
	ListBySubject(ctx context.Context, schoolID, subjectID string) ([]models.Room, error)
}

type generatorSlotRepository interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	ListByYear(ctx context.Context, schoolYearID string) ([]models.TimetableSlot, error)
	DeleteByClassesWithTx(ctx context.Context, tx *sqlx.Tx, schoolYearID string, classIDs []string) error
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.TimetableSlot) error
}

type generationObserver interface {
	ObserveGeneration(scope string, placed, unplaced int, duration time.Duration)
}

// GeneratorService builds full timetables in one greedy pass, for a whole
// school or a single class.
type GeneratorService struct {
	classes   generatorClassRepository
	curricula curriculumReader
	subjects  gradeSubjectReader
	teachers  eligibleTeacherReader
	rooms     subjectRoomReader
	slots     generatorSlotRepository
	periods   periodResolver
	cache     gridCache
	metrics   generationObserver
	rng       *rand.Rand
	defaults  GeneratorConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// GeneratorConfig carries the default grid bounds; requests may override
// them within [1,7] days and [1,10] periods.
type GeneratorConfig struct {
	DaysPerWeek   int
	PeriodsPerDay int
}

// NewGeneratorService wires generator dependencies.
func NewGeneratorService(
	classes generatorClassRepository,
	curricula curriculumReader,
	subjects gradeSubjectReader,
	teachers eligibleTeacherReader,
	rooms subjectRoomReader,
	slots generatorSlotRepository,
	periods periodResolver,
	cache gridCache,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DaysPerWeek < 1 || cfg.DaysPerWeek > 7 {
		cfg.DaysPerWeek = 5
	}
	if cfg.PeriodsPerDay < 1 || cfg.PeriodsPerDay > 10 {
		cfg.PeriodsPerDay = 10
	}
	return &GeneratorService{
		classes:   classes,
		curricula: curricula,
		subjects:  subjects,
		teachers:  teachers,
		rooms:     rooms,
		slots:     slots,
		periods:   periods,
		cache:     cache,
		metrics:   metrics,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		defaults:  cfg,
		validator: validate,
		logger:    logger,
	}
}

// --- Arena occupancy tables ---

type cellKey struct {
	Day    string
	Period int
}

// allocationTables hold the school-wide occupancy state of one generation
// run. They live on the stack of that run and are discarded with it, so
// concurrent runs for different schools cannot interfere.
type allocationTables struct {
	tokens map[cellKey]map[string]struct{}
	rooms  map[cellKey]map[string]struct{}
}

func newAllocationTables() *allocationTables {
	return &allocationTables{
		tokens: make(map[cellKey]map[string]struct{}),
		rooms:  make(map[cellKey]map[string]struct{}),
	}
}

func (t *allocationTables) teacherBusy(day string, period int, teacherID string) bool {
	prefix := teacherID + ":"
	for token := range t.tokens[cellKey{Day: day, Period: period}] {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}

func (t *allocationTables) roomBusy(day string, period int, roomID string) bool {
	_, busy := t.rooms[cellKey{Day: day, Period: period}][roomID]
	return busy
}

func (t *allocationTables) occupyTeacher(day string, period int, teacherID, subjectID string) {
	key := cellKey{Day: day, Period: period}
	if t.tokens[key] == nil {
		t.tokens[key] = make(map[string]struct{})
	}
	t.tokens[key][teacherID+":"+subjectID] = struct{}{}
}

func (t *allocationTables) occupyRoom(day string, period int, roomID string) {
	key := cellKey{Day: day, Period: period}
	if t.rooms[key] == nil {
		t.rooms[key] = make(map[string]struct{})
	}
	t.rooms[key][roomID] = struct{}{}
}

// classOccupancy tracks which grid cells a single class has filled during
// its own allocation.
type classOccupancy struct {
	busy map[cellKey]bool
}

func newClassOccupancy() *classOccupancy {
	return &classOccupancy{busy: make(map[cellKey]bool)}
}

// --- Subject demand resolution ---

// resolveSubjectDemands resolves the weekly subject requirements of a
// class: its own curriculum first, then the curricula of its educational
// system, then every subject of its grade level at one period per week.
// Duplicate subjects keep the first occurrence's requirement.
func (s *GeneratorService) resolveSubjectDemands(ctx context.Context, class *models.Class) ([]models.SubjectDemand, error) {
	var demands []models.SubjectDemand

	if class.CurriculumID != nil && *class.CurriculumID != "" {
		list, err := s.curricula.ListSubjects(ctx, *class.CurriculumID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum subjects")
		}
		demands = list
	}

	if len(demands) == 0 {
		curricula, err := s.curricula.ListByEducationalSystem(ctx, class.EducationalSystemID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load educational system curricula")
		}
		for _, curriculum := range curricula {
			list, err := s.curricula.ListSubjects(ctx, curriculum.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum subjects")
			}
			demands = append(demands, list...)
		}
	}

	if len(demands) == 0 {
		subjects, err := s.subjects.ListByGradeLevel(ctx, class.SchoolID, class.GradeLevelID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade level subjects")
		}
		for _, subject := range subjects {
			demands = append(demands, models.SubjectDemand{Subject: subject, PeriodsPerWeek: 1})
		}
	}

	seen := make(map[string]bool, len(demands))
	deduped := demands[:0]
	for _, demand := range demands {
		if seen[demand.ID] {
			continue
		}
		seen[demand.ID] = true
		deduped = append(deduped, demand)
	}
	return deduped, nil
}

// sortDemands orders subjects hardest-to-place first: main subjects, then
// descending weekly period count.
func sortDemands(demands []models.SubjectDemand) {
	sort.SliceStable(demands, func(i, j int) bool {
		mi, mj := demands[i].IsMainSubject(), demands[j].IsMainSubject()
		if mi != mj {
			return mi
		}
		return demands[i].PeriodsPerWeek > demands[j].PeriodsPerWeek
	})
}

// --- Placement ---

type placementInput struct {
	schoolYearID string
	class        *models.Class
	demand       models.SubjectDemand
	teachers     []models.Teacher
	rooms        []models.Room
	days         []string
	periods      []models.PeriodDefinition
	random       bool
}

// placeSubject runs the greedy scan for one subject: days outer, periods
// inner, at most two periods per day and the second only directly after
// the first. It returns the produced slots; the caller compares their
// count against the demand.
func (s *GeneratorService) placeSubject(arena *allocationTables, class *classOccupancy, in placementInput) []models.TimetableSlot {
	var placed []models.TimetableSlot
	byDay := make(map[string][]int, len(in.days))
	remaining := in.demand.PeriodsPerWeek

	for remaining > 0 {
		progressed := false
		for _, day := range in.days {
			if remaining == 0 {
				break
			}
			for p := 0; p < len(in.periods); p++ {
				if remaining == 0 {
					break
				}
				daily := byDay[day]
				if len(daily) >= 2 {
					break
				}
				if len(daily) == 1 && p != daily[0]+1 {
					continue
				}
				key := cellKey{Day: day, Period: p}
				if class.busy[key] {
					continue
				}

				roomID := in.class.ID
				if in.demand.NeedFunctionRoom {
					room := s.pickRoom(arena, in.rooms, day, p, in.random)
					if room == nil {
						continue
					}
					roomID = room.ID
				}

				teacher := s.pickTeacher(arena, in.teachers, day, p, in.random)
				if teacher == nil {
					continue
				}

				room := roomID
				placed = append(placed, models.TimetableSlot{
					SchoolYearID: in.schoolYearID,
					ClassID:      in.class.ID,
					SubjectID:    in.demand.ID,
					Teachers:     []string{teacher.ID},
					RoomID:       &room,
					DayOfWeek:    day,
					StartTime:    in.periods[p].StartTime,
					EndTime:      in.periods[p].EndTime,
					Status:       models.SlotStatusReady,
				})
				arena.occupyTeacher(day, p, teacher.ID, in.demand.ID)
				if in.demand.NeedFunctionRoom {
					arena.occupyRoom(day, p, roomID)
				}
				class.busy[key] = true
				byDay[day] = append(daily, p)
				remaining--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return placed
}

// pickTeacher returns the first eligible teacher free at the cell, or a
// uniformly random free one on the single-class quick path.
func (s *GeneratorService) pickTeacher(arena *allocationTables, teachers []models.Teacher, day string, period int, random bool) *models.Teacher {
	var free []*models.Teacher
	for i := range teachers {
		if arena.teacherBusy(day, period, teachers[i].ID) {
			continue
		}
		if !random {
			return &teachers[i]
		}
		free = append(free, &teachers[i])
	}
	if len(free) == 0 {
		return nil
	}
	return free[s.rng.Intn(len(free))]
}

func (s *GeneratorService) pickRoom(arena *allocationTables, rooms []models.Room, day string, period int, random bool) *models.Room {
	var free []*models.Room
	for i := range rooms {
		if arena.roomBusy(day, period, rooms[i].ID) {
			continue
		}
		if !random {
			return &rooms[i]
		}
		free = append(free, &rooms[i])
	}
	if len(free) == 0 {
		return nil
	}
	return free[s.rng.Intn(len(free))]
}

// --- Entry points ---

// GenerateForSchool wipes and regenerates the timetables of every class in
// a school for one year, deterministically. Placement shortfalls ride in
// the result; only configuration problems fail the call.
func (s *GeneratorService) GenerateForSchool(ctx context.Context, schoolYearID, schoolID string, cfg dto.GenerateConfig) (*dto.GenerateResult, error) {
	started := time.Now()
	if schoolYearID == "" || schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and schoolId are required")
	}
	if err := s.validator.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "daysPerWeek must be within [1,7] and periodsPerDay within [1,10]")
	}
	if cfg.DaysPerWeek == 0 {
		cfg.DaysPerWeek = s.defaults.DaysPerWeek
	}
	if cfg.PeriodsPerDay == 0 {
		cfg.PeriodsPerDay = s.defaults.PeriodsPerDay
	}

	classes, err := s.classes.ListBySchoolYear(ctx, schoolID, schoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classes found for this school and year")
	}

	periods, err := s.periods.ResolvePeriods(ctx, schoolID, schoolYearID)
	if err != nil {
		return nil, err
	}
	if cfg.PeriodsPerDay < len(periods) {
		periods = periods[:cfg.PeriodsPerDay]
	}
	days := models.DaysOfWeek[:cfg.DaysPerWeek]

	arena := newAllocationTables()
	result := &dto.GenerateResult{}
	var slots []models.TimetableSlot
	classIDs := make([]string, 0, len(classes))

	for i := range classes {
		class := &classes[i].Class
		classIDs = append(classIDs, class.ID)

		classSlots, err := s.allocateClass(ctx, arena, schoolYearID, class, classes[i].Name, days, periods, false, result)
		if err != nil {
			return nil, err
		}
		slots = append(slots, classSlots...)
	}

	if len(slots) == 0 {
		result.Success = false
		result.Message = "no timetable slots could be generated"
		return result, nil
	}

	if err := s.persistGeneration(ctx, schoolYearID, classIDs, slots); err != nil {
		return nil, err
	}
	s.invalidateGrids(ctx, schoolYearID)

	result.Success = true
	result.TimetableCount = len(slots)
	result.Message = fmt.Sprintf("generated %d timetable slots for %d classes", len(slots), len(classes))
	if s.metrics != nil {
		s.metrics.ObserveGeneration("school", len(slots), len(result.Unplaced), time.Since(started))
	}
	return result, nil
}

// GenerateForClass wipes and regenerates one class's timetable, seeding
// occupancy from the rest of the year's slots. Teacher and room selection
// is uniformly random among free candidates on this path.
func (s *GeneratorService) GenerateForClass(ctx context.Context, schoolYearID, classID string) (*dto.GenerateResult, error) {
	started := time.Now()
	if schoolYearID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYearId and classId are required")
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
	if s.defaults.PeriodsPerDay < len(periods) {
		periods = periods[:s.defaults.PeriodsPerDay]
	}
	days := models.DaysOfWeek[:s.defaults.DaysPerWeek]

	arena := newAllocationTables()
	if err := s.seedArena(ctx, arena, schoolYearID, classID, periods); err != nil {
		return nil, err
	}

	result := &dto.GenerateResult{}
	slots, err := s.allocateClass(ctx, arena, schoolYearID, class, class.Name, days, periods, true, result)
	if err != nil {
		return nil, err
	}

	if len(slots) == 0 {
		result.Success = false
		result.Message = "no timetable slots could be generated for this class"
		return result, nil
	}

	if err := s.persistGeneration(ctx, schoolYearID, []string{classID}, slots); err != nil {
		return nil, err
	}
	s.invalidateGrids(ctx, schoolYearID)

	result.Success = true
	result.TimetableCount = len(slots)
	result.Message = fmt.Sprintf("generated %d timetable slots", len(slots))
	if s.metrics != nil {
		s.metrics.ObserveGeneration("class", len(slots), len(result.Unplaced), time.Since(started))
	}
	return result, nil
}

// allocateClass resolves and places every subject demand of one class,
// recording unplaceable demands and per-class configuration problems in
// the shared result.
func (s *GeneratorService) allocateClass(
	ctx context.Context,
	arena *allocationTables,
	schoolYearID string,
	class *models.Class,
	className string,
	days []string,
	periods []models.PeriodDefinition,
	random bool,
	result *dto.GenerateResult,
) ([]models.TimetableSlot, error) {
	demands, err := s.resolveSubjectDemands(ctx, class)
	if err != nil {
		return nil, err
	}
	if len(demands) == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("class %s has no subjects to schedule", className))
		return nil, nil
	}
	sortDemands(demands)

	occupancy := newClassOccupancy()
	var slots []models.TimetableSlot

	for _, demand := range demands {
		teachers, err := s.teachers.ListEligible(ctx, class.SchoolID, demand.ID, class.GradeLevelID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load eligible teachers")
		}
		if len(teachers) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("class %s: no eligible teachers for subject %s", className, demand.Name))
			continue
		}

		var rooms []models.Room
		if demand.NeedFunctionRoom {
			rooms, err = s.rooms.ListBySubject(ctx, class.SchoolID, demand.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load function rooms")
			}
			if len(rooms) == 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("class %s: no function rooms for subject %s", className, demand.Name))
				continue
			}
		}

		placed := s.placeSubject(arena, occupancy, placementInput{
			schoolYearID: schoolYearID,
			class:        class,
			demand:       demand,
			teachers:     teachers,
			rooms:        rooms,
			days:         days,
			periods:      periods,
			random:       random,
		})
		slots = append(slots, placed...)

		if len(placed) < demand.PeriodsPerWeek {
			s.logger.Warn("subject demand not fully placed",
				zap.String("class_id", class.ID),
				zap.String("subject_id", demand.ID),
				zap.Int("required", demand.PeriodsPerWeek),
				zap.Int("placed", len(placed)))
			result.Unplaced = append(result.Unplaced, dto.UnplacedDemand{
				ClassID:     class.ID,
				ClassName:   className,
				SubjectID:   demand.ID,
				SubjectName: demand.Name,
				Required:    demand.PeriodsPerWeek,
				Placed:      len(placed),
			})
		}
	}
	return slots, nil
}

// seedArena marks the cells already taken by other classes' slots so a
// single-class run cannot double-book teachers or function rooms.
func (s *GeneratorService) seedArena(ctx context.Context, arena *allocationTables, schoolYearID, excludeClassID string, periods []models.PeriodDefinition) error {
	existing, err := s.slots.ListByYear(ctx, schoolYearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing slots")
	}
	indexByStart := make(map[string]int, len(periods))
	for i, period := range periods {
		indexByStart[period.StartTime] = i
	}
	for _, slot := range existing {
		if slot.ClassID == excludeClassID {
			continue
		}
		p, ok := indexByStart[slot.StartTime]
		if !ok {
			continue
		}
		for _, teacherID := range slot.Teachers {
			arena.occupyTeacher(slot.DayOfWeek, p, teacherID, slot.SubjectID)
		}
		if slot.RoomID != nil && *slot.RoomID != slot.ClassID {
			arena.occupyRoom(slot.DayOfWeek, p, *slot.RoomID)
		}
	}
	return nil
}

// persistGeneration commits the wipe and the bulk insert as one
// transaction so a failed run leaves the previous timetable intact.
func (s *GeneratorService) persistGeneration(ctx context.Context, schoolYearID string, classIDs []string, slots []models.TimetableSlot) error {
	tx, err := s.slots.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.slots.DeleteByClassesWithTx(ctx, tx, schoolYearID, classIDs); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe previous slots")
		return err
	}
	if err = s.slots.BulkCreateWithTx(ctx, tx, slots); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated slots")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation transaction")
		return err
	}
	return nil
}

func (s *GeneratorService) invalidateGrids(ctx context.Context, schoolYearID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("timetable:grid:%s:*", schoolYearID)); err != nil {
		s.logger.Warn("grid cache invalidation failed", zap.String("school_year_id", schoolYearID), zap.Error(err))
	}
}
