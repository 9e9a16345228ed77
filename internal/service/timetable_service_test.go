package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

func TestTimetableServiceCreateSlotRejectsClassOverlap(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math",
			DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45", Status: models.SlotStatusReady},
	}

	_, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "physics",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:30", EndTime: "09:00"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var conflict *models.TimetableConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionClass, conflict.Dimension)
	assert.Equal(t, "slot-1", conflict.Conflict.SlotID)
	assert.Empty(t, fixture.slots.created, "conflicting slot must not be written")
}

func TestTimetableServiceCreateSlotRejectsTeacherOverlapAcrossClasses(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-2", SubjectID: "math",
			Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	_, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.Error(t, err)

	var conflict *models.TimetableConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictDimensionTeacher, conflict.Dimension)
}

func TestTimetableServiceCreateSlotAllowsAdjacentRanges(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math",
			DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	slot, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "physics",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:45", EndTime: "09:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusReady, slot.Status)
	assert.Equal(t, []string{gridCacheKey("year-1", "class-1")}, fixture.cache.deletedPatterns)
}

func TestTimetableServiceCreateSlotSkipsRoomCheckForHomeRoom(t *testing.T) {
	fixture := newTimetableFixture(t)
	// A foreign slot occupies the synthetic home room id of class-1 in the
	// stub; the check must never reach it.
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-2", SubjectID: "math",
			RoomID: strPtr("class-1"), DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	_, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "physics",
		Teachers:     []string{"teacher-9"},
		RoomID:       strPtr("class-1"),
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.NoError(t, err)
	assert.Zero(t, fixture.slots.roomDayCalls, "home room must not be contended")
}

func TestTimetableServiceCreateSlotRejectsInvertedTimeRange(t *testing.T) {
	fixture := newTimetableFixture(t)

	_, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "08:00"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceCreateSlotRejectsUnknownDay(t *testing.T) {
	fixture := newTimetableFixture(t)

	_, err := fixture.service.CreateSlot(context.Background(), dto.CreateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Moonday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceUpdateSlotExcludesItselfFromOverlapScan(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math",
			Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	slot, err := fixture.service.UpdateSlot(context.Background(), "slot-1", dto.UpdateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-2"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher-2"}, []string(slot.Teachers))
}

func TestTimetableServiceUpdateSlotInvalidatesBothGridsOnClassMove(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math",
			Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	_, err := fixture.service.UpdateSlot(context.Background(), "slot-1", dto.UpdateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-2",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.NoError(t, err)
	assert.Contains(t, fixture.cache.deletedPatterns, gridCacheKey("year-1", "class-1"))
	assert.Contains(t, fixture.cache.deletedPatterns, gridCacheKey("year-1", "class-2"))
}

func TestTimetableServiceUpdateSlotNotFound(t *testing.T) {
	fixture := newTimetableFixture(t)

	_, err := fixture.service.UpdateSlot(context.Background(), "missing", dto.UpdateSlotRequest{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		TimeSlot:     dto.TimeSlotRequest{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGetGridDerivesDisplayIndices(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.periods.periods = makeRegularPeriods(3)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math",
			Teachers: []string{"teacher-1"}, DayOfWeek: "Monday",
			StartTime: "09:00", EndTime: "09:45", Status: models.SlotStatusReady},
	}

	grid, err := fixture.service.GetGrid(context.Background(), "year-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, 3, grid.Periods)
	require.Len(t, grid.Cells["Monday"], 1)
	assert.Equal(t, 2, grid.Cells["Monday"][0].DisplayIndex)

	// Second read must come from the cache.
	classLookups := fixture.classes.calls
	again, err := fixture.service.GetGrid(context.Background(), "year-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, grid.ClassID, again.ClassID)
	assert.Equal(t, classLookups, fixture.classes.calls)
}

func TestTimetableServiceGetGridPropagatesUnconfiguredGrid(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.periods.err = appErrors.Clone(appErrors.ErrNotConfigured, "no period definitions configured for this school year")

	_, err := fixture.service.GetGrid(context.Background(), "year-1", "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceImportSkipsBadRowsAndKeepsGoing(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.periods.periods = makeRegularPeriods(2)

	result, err := fixture.service.ImportSlots(context.Background(), dto.ImportTimetableRequest{
		SchoolYearID: "year-1",
		SchoolID:     "school-1",
		Rows: []dto.ImportSlotRow{
			{ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", DisplayPeriodIndex: 1},
			{ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", DisplayPeriodIndex: 9},
			{ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"}, DayOfWeek: "Funday", DisplayPeriodIndex: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Skipped, 2)
	assert.Contains(t, result.Skipped[0], "row 2")
	assert.Contains(t, result.Skipped[1], "row 3")

	require.Len(t, fixture.slots.created, 1)
	assert.Equal(t, "08:00", fixture.slots.created[0].StartTime)
	assert.Equal(t, models.SlotStatusReady, fixture.slots.created[0].Status)
}

func TestTimetableServiceImportedRowsRunConflictChecks(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.periods.periods = makeRegularPeriods(2)
	fixture.slots.items = []models.TimetableSlot{
		{ID: "slot-1", SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "physics",
			DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45"},
	}

	result, err := fixture.service.ImportSlots(context.Background(), dto.ImportTimetableRequest{
		SchoolYearID: "year-1",
		SchoolID:     "school-1",
		Rows: []dto.ImportSlotRow{
			{ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"}, DayOfWeek: "Monday", DisplayPeriodIndex: 1},
		},
	})
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0], "row 1")
}

// --- Fixtures ---

type timetableFixture struct {
	service *TimetableService
	slots   *slotRepoTimetableStub
	classes *classReaderStub
	periods *periodResolverStub
	cache   *gridCacheSpy
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	slots := &slotRepoTimetableStub{}
	classes := &classReaderStub{}
	periods := &periodResolverStub{periods: makeRegularPeriods(2)}
	cache := newGridCacheSpy()
	svc := NewTimetableService(slots, classes, periods, cache, nil, zap.NewNop(), TimetableServiceConfig{GridCacheTTL: time.Minute})
	return &timetableFixture{service: svc, slots: slots, classes: classes, periods: periods, cache: cache}
}

type slotRepoTimetableStub struct {
	items        []models.TimetableSlot
	created      []*models.TimetableSlot
	deleted      []string
	roomDayCalls int
}

func (s *slotRepoTimetableStub) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			slot := s.items[i]
			return &slot, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *slotRepoTimetableStub) ListByClass(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, slot := range s.items {
		if slot.SchoolYearID == schoolYearID && slot.ClassID == classID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoTimetableStub) ListByClassDay(ctx context.Context, schoolYearID, classID, dayOfWeek string) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, slot := range s.items {
		if slot.SchoolYearID == schoolYearID && slot.ClassID == classID && slot.DayOfWeek == dayOfWeek {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoTimetableStub) ListByTeacherDay(ctx context.Context, schoolYearID, teacherID, dayOfWeek string) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, slot := range s.items {
		if slot.SchoolYearID == schoolYearID && slot.DayOfWeek == dayOfWeek && slot.HasTeacher(teacherID) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoTimetableStub) ListByRoomDay(ctx context.Context, schoolYearID, roomID, dayOfWeek string) ([]models.TimetableSlot, error) {
	s.roomDayCalls++
	var out []models.TimetableSlot
	for _, slot := range s.items {
		if slot.SchoolYearID == schoolYearID && slot.DayOfWeek == dayOfWeek && slot.RoomID != nil && *slot.RoomID == roomID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoTimetableStub) ListByTeacher(ctx context.Context, schoolYearID, teacherID string) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, slot := range s.items {
		if slot.SchoolYearID == schoolYearID && slot.HasTeacher(teacherID) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotRepoTimetableStub) Create(ctx context.Context, slot *models.TimetableSlot) error {
	slot.ID = fmt.Sprintf("slot-new-%d", len(s.created)+1)
	s.created = append(s.created, slot)
	s.items = append(s.items, *slot)
	return nil
}

func (s *slotRepoTimetableStub) Update(ctx context.Context, slot *models.TimetableSlot) error {
	for i := range s.items {
		if s.items[i].ID == slot.ID {
			s.items[i] = *slot
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *slotRepoTimetableStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type classReaderStub struct {
	missing map[string]bool
	calls   int
}

func (s *classReaderStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	s.calls++
	if s.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Class{ID: id, Name: "Class " + id, SchoolID: "school-1", SchoolYearID: "year-1",
		GradeLevelID: "grade-1", EducationalSystemID: "system-1"}, nil
}

type periodResolverStub struct {
	periods []models.PeriodDefinition
	err     error
}

func (s *periodResolverStub) ResolvePeriods(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.periods, nil
}

type gridCacheSpy struct {
	store           map[string][]byte
	deletedPatterns []string
	setCalls        int
}

func newGridCacheSpy() *gridCacheSpy {
	return &gridCacheSpy{store: make(map[string][]byte)}
}

func (c *gridCacheSpy) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *gridCacheSpy) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = raw
	c.setCalls++
	return nil
}

func (c *gridCacheSpy) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletedPatterns = append(c.deletedPatterns, pattern)
	delete(c.store, pattern)
	return nil
}

// makeRegularPeriods builds n back-to-back teaching periods from 08:00.
func makeRegularPeriods(n int) []models.PeriodDefinition {
	periods := make([]models.PeriodDefinition, 0, n)
	for i := 0; i < n; i++ {
		periods = append(periods, models.PeriodDefinition{
			ID:           fmt.Sprintf("period-%d", i+1),
			SchoolID:     "school-1",
			SchoolYearID: "year-1",
			PeriodNumber: i + 1,
			StartTime:    fmt.Sprintf("%02d:00", 8+i),
			EndTime:      fmt.Sprintf("%02d:45", 8+i),
			Type:         models.PeriodTypeRegular,
		})
	}
	return periods
}

func strPtr(s string) *string {
	return &s
}
