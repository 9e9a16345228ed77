package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/models"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
)

func TestBuildDisplayMapFollowsStartTimeOrder(t *testing.T) {
	periods := []models.PeriodDefinition{
		{ID: "late", PeriodNumber: 3, StartTime: "10:00", EndTime: "10:45"},
		{ID: "early", PeriodNumber: 1, StartTime: "08:00", EndTime: "08:45"},
		{ID: "middle", PeriodNumber: 2, StartTime: "09:00", EndTime: "09:45"},
	}

	display := BuildDisplayMap(periods)
	require.Len(t, display, 3)
	assert.Equal(t, "early", display[0].ID)
	assert.Equal(t, 1, display[0].DisplayIndex)
	assert.Equal(t, "middle", display[1].ID)
	assert.Equal(t, 2, display[1].DisplayIndex)
	assert.Equal(t, "late", display[2].ID)
	assert.Equal(t, 3, display[2].DisplayIndex)
}

func TestBuildDisplayMapShiftsIndicesWhenEarlierPeriodAppears(t *testing.T) {
	periods := makeRegularPeriods(2)
	before := BuildDisplayMap(periods)
	assert.Equal(t, 1, before[0].DisplayIndex)

	// A new 07:00 period pushes everything else down by one.
	periods = append(periods, models.PeriodDefinition{
		ID: "dawn", PeriodNumber: 9, StartTime: "07:00", EndTime: "07:45", Type: models.PeriodTypeRegular,
	})
	after := BuildDisplayMap(periods)
	require.Len(t, after, 3)
	assert.Equal(t, "dawn", after[0].ID)
	assert.Equal(t, "period-1", after[1].ID)
	assert.Equal(t, 2, after[1].DisplayIndex)
}

func TestBuildDisplayMapBreaksStartTimeTiesByPeriodNumber(t *testing.T) {
	periods := []models.PeriodDefinition{
		{ID: "b", PeriodNumber: 2, StartTime: "08:00", EndTime: "08:45"},
		{ID: "a", PeriodNumber: 1, StartTime: "08:00", EndTime: "08:45"},
	}
	display := BuildDisplayMap(periods)
	assert.Equal(t, "a", display[0].ID)
	assert.Equal(t, "b", display[1].ID)
}

func TestPeriodForDisplayIndexRejectsOutOfRange(t *testing.T) {
	periods := makeRegularPeriods(3)

	period, err := PeriodForDisplayIndex(periods, 2)
	require.NoError(t, err)
	assert.Equal(t, "09:00", period.StartTime)

	for _, index := range []int{0, -1, 4} {
		_, err := PeriodForDisplayIndex(periods, index)
		require.Error(t, err, "index %d", index)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestPeriodServiceResolvePeriodsRequiresSeededGrid(t *testing.T) {
	fixture := newPeriodFixture(t)

	_, err := fixture.service.ResolvePeriods(context.Background(), "school-1", "year-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceResolvePeriodsReturnsRegularOnly(t *testing.T) {
	fixture := newPeriodFixture(t)
	fixture.periods.regular = makeRegularPeriods(3)

	periods, err := fixture.service.ResolvePeriods(context.Background(), "school-1", "year-1")
	require.NoError(t, err)
	assert.Len(t, periods, 3)
}

func TestPeriodServiceListWithDisplaySkipsNonTeachingEntries(t *testing.T) {
	fixture := newPeriodFixture(t)
	lunch := models.PeriodDefinition{ID: "lunch", StartTime: "11:30", EndTime: "12:30", Type: models.PeriodTypeLunch}
	fixture.periods.all = append(makeRegularPeriods(2), lunch)

	display, err := fixture.service.ListWithDisplay(context.Background(), "school-1", "year-1")
	require.NoError(t, err)
	require.Len(t, display, 3)
	assert.Equal(t, 1, display[0].DisplayIndex)
	assert.Equal(t, 2, display[1].DisplayIndex)
	assert.Zero(t, display[2].DisplayIndex, "lunch is not addressable")
}

func TestPeriodServiceCreateDefaultsToRegularType(t *testing.T) {
	fixture := newPeriodFixture(t)

	period, err := fixture.service.CreateDefinition(context.Background(), "year-1", dto.CreatePeriodDefinitionRequest{
		SchoolID:     "school-1",
		PeriodNumber: 1,
		StartTime:    "08:00",
		EndTime:      "08:45",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodTypeRegular, period.Type)
	assert.Equal(t, "year-1", period.SchoolYearID)
}

func TestPeriodServiceCreateRejectsInvertedRange(t *testing.T) {
	fixture := newPeriodFixture(t)

	_, err := fixture.service.CreateDefinition(context.Background(), "year-1", dto.CreatePeriodDefinitionRequest{
		SchoolID:  "school-1",
		StartTime: "09:00",
		EndTime:   "08:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceDeleteBlockedWhileReferenced(t *testing.T) {
	fixture := newPeriodFixture(t)
	fixture.periods.regular = makeRegularPeriods(1)
	fixture.slotCount.count = 12

	err := fixture.service.DeleteDefinition(context.Background(), "period-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fixture.periods.deleted)
}

func TestPeriodServiceDeleteUnreferenced(t *testing.T) {
	fixture := newPeriodFixture(t)
	fixture.periods.regular = makeRegularPeriods(1)

	require.NoError(t, fixture.service.DeleteDefinition(context.Background(), "period-1"))
	assert.Equal(t, []string{"period-1"}, fixture.periods.deleted)
}

// --- Fixtures ---

type periodFixture struct {
	service   *PeriodService
	periods   *periodRepoStub
	slotCount *slotCounterStub
}

func newPeriodFixture(t *testing.T) *periodFixture {
	t.Helper()
	periods := &periodRepoStub{}
	slotCount := &slotCounterStub{}
	svc := NewPeriodService(periods, slotCount, nil, zap.NewNop())
	return &periodFixture{service: svc, periods: periods, slotCount: slotCount}
}

type periodRepoStub struct {
	regular []models.PeriodDefinition
	all     []models.PeriodDefinition
	created []*models.PeriodDefinition
	deleted []string
}

func (s *periodRepoStub) ListRegular(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	return s.regular, nil
}

func (s *periodRepoStub) ListByYear(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	return s.all, nil
}

func (s *periodRepoStub) FindByID(ctx context.Context, id string) (*models.PeriodDefinition, error) {
	for i := range s.regular {
		if s.regular[i].ID == id {
			period := s.regular[i]
			return &period, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) Create(ctx context.Context, period *models.PeriodDefinition) error {
	period.ID = fmt.Sprintf("period-new-%d", len(s.created)+1)
	s.created = append(s.created, period)
	return nil
}

func (s *periodRepoStub) Update(ctx context.Context, period *models.PeriodDefinition) error {
	for i := range s.regular {
		if s.regular[i].ID == period.ID {
			s.regular[i] = *period
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *periodRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type slotCounterStub struct {
	count int
}

func (s *slotCounterStub) CountByYearAndTimeRange(ctx context.Context, schoolID, schoolYearID, startTime, endTime string) (int, error) {
	return s.count, nil
}
