package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

func TestScheduleServiceCreateActiveVersion(t *testing.T) {
	fixture := newScheduleFixture(t)

	schedule, err := fixture.service.Create(context.Background(), dto.CreateScheduleRequest{
		Name:         "Semester 1",
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		StartDate:    "2025-09-01",
		EndDate:      "2026-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusActive, schedule.Status)
	assert.Equal(t, "2025-09-01", schedule.StartDate.Format("2006-01-02"))
}

func TestScheduleServiceCreateRejectsActiveOverlap(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.schedules.overlapping = &models.TimetableSchedule{
		ID: "sched-1", Name: "Semester 1",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"),
		Status: models.ScheduleStatusActive,
	}

	_, err := fixture.service.Create(context.Background(), dto.CreateScheduleRequest{
		Name:         "Semester 1 bis",
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		StartDate:    "2025-12-01",
		EndDate:      "2026-03-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fixture.schedules.created)
}

func TestScheduleServiceCreateRejectsBadDates(t *testing.T) {
	fixture := newScheduleFixture(t)

	cases := []struct{ start, end string }{
		{"01-09-2025", "2026-01-15"},
		{"2025-09-01", "garbage"},
		{"2026-01-15", "2025-09-01"},
		{"2025-09-01", "2025-09-01"},
	}
	for _, tc := range cases {
		_, err := fixture.service.Create(context.Background(), dto.CreateScheduleRequest{
			Name:         "Semester 1",
			SchoolYearID: "year-1",
			ClassID:      "class-1",
			StartDate:    tc.start,
			EndDate:      tc.end,
		})
		require.Error(t, err, "%s..%s", tc.start, tc.end)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestScheduleServiceUpdateSkipsOverlapCheckWhenInactive(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.schedules.items = []models.TimetableSchedule{{
		ID: "sched-1", Name: "Semester 1", SchoolYearID: "year-1", ClassID: "class-1",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"),
		Status: models.ScheduleStatusActive,
	}}
	fixture.schedules.overlapping = &models.TimetableSchedule{ID: "sched-2", Name: "Other",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"), Status: models.ScheduleStatusActive}

	schedule, err := fixture.service.Update(context.Background(), "sched-1", dto.UpdateScheduleRequest{
		Status: "inactive",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusInactive, schedule.Status)
	assert.Zero(t, fixture.schedules.overlapCalls, "deactivation needs no overlap check")
}

func TestScheduleServiceUpdateReChecksOverlapWhenActive(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.schedules.items = []models.TimetableSchedule{{
		ID: "sched-1", Name: "Semester 1", SchoolYearID: "year-1", ClassID: "class-1",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"),
		Status: models.ScheduleStatusActive,
	}}
	fixture.schedules.overlapping = &models.TimetableSchedule{ID: "sched-2", Name: "Semester 2",
		StartDate: date("2026-01-16"), EndDate: date("2026-06-01"), Status: models.ScheduleStatusActive}

	_, err := fixture.service.Update(context.Background(), "sched-1", dto.UpdateScheduleRequest{
		EndDate: "2026-02-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "sched-1", fixture.schedules.lastExcludeID, "the edited version is excluded from its own check")
}

func TestScheduleServiceDeleteCascadesSlots(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.schedules.items = []models.TimetableSchedule{{
		ID: "sched-1", Name: "Semester 1", SchoolYearID: "year-1", ClassID: "class-1",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"),
		Status: models.ScheduleStatusActive,
	}}
	fixture.slots.deletedCount = 7
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Delete(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 7, result.DeletedSlots)
	assert.Equal(t, []string{"sched-1"}, fixture.schedules.deleted)
	assert.Contains(t, fixture.cache.deletedPatterns, gridCacheKey("year-1", "class-1"))
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleServiceDeleteNotFound(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, err := fixture.service.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceAttachFile(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.schedules.items = []models.TimetableSchedule{{
		ID: "sched-1", Name: "Semester 1", SchoolYearID: "year-1", ClassID: "class-1",
		StartDate: date("2025-09-01"), EndDate: date("2026-01-15"),
		Status: models.ScheduleStatusActive,
	}}

	schedule, err := fixture.service.AttachFile(context.Background(), "sched-1", dto.AttachScheduleFileRequest{
		FileURL:  "https://files.example.com/tt.xlsx",
		FileName: "tt.xlsx",
	})
	require.NoError(t, err)
	require.NotNil(t, schedule.FileName)
	assert.Equal(t, "tt.xlsx", *schedule.FileName)
}

// --- Fixtures ---

type scheduleFixture struct {
	service   *ScheduleService
	schedules *scheduleRepoStub
	slots     *scheduleSlotRepoStub
	cache     *gridCacheSpy
	mock      sqlmock.Sqlmock
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schedules := &scheduleRepoStub{}
	slots := &scheduleSlotRepoStub{db: sqlx.NewDb(db, "sqlmock")}
	cache := newGridCacheSpy()
	svc := NewScheduleService(schedules, slots, cache, nil, zap.NewNop())
	return &scheduleFixture{service: svc, schedules: schedules, slots: slots, cache: cache, mock: mock}
}

func date(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

type scheduleRepoStub struct {
	items         []models.TimetableSchedule
	overlapping   *models.TimetableSchedule
	overlapCalls  int
	lastExcludeID string
	created       []*models.TimetableSchedule
	deleted       []string
}

func (s *scheduleRepoStub) ListByClassYear(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSchedule, error) {
	return s.items, nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.TimetableSchedule, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			schedule := s.items[i]
			return &schedule, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) FindActiveOverlapping(ctx context.Context, schoolYearID, classID string, start, end time.Time, excludeID string) (*models.TimetableSchedule, error) {
	s.overlapCalls++
	s.lastExcludeID = excludeID
	if s.overlapping == nil {
		return nil, sql.ErrNoRows
	}
	return s.overlapping, nil
}

func (s *scheduleRepoStub) Create(ctx context.Context, schedule *models.TimetableSchedule) error {
	schedule.ID = fmt.Sprintf("sched-new-%d", len(s.created)+1)
	s.created = append(s.created, schedule)
	s.items = append(s.items, *schedule)
	return nil
}

func (s *scheduleRepoStub) Update(ctx context.Context, schedule *models.TimetableSchedule) error {
	for i := range s.items {
		if s.items[i].ID == schedule.ID {
			s.items[i] = *schedule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *scheduleRepoStub) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type scheduleSlotRepoStub struct {
	db           *sqlx.DB
	deletedCount int
}

func (s *scheduleSlotRepoStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *scheduleSlotRepoStub) DeleteByScheduleWithTx(ctx context.Context, tx *sqlx.Tx, scheduleID string) (int, error) {
	return s.deletedCount, nil
}
