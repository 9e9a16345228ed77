package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-core-api/internal/models"
)

func periodRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "school_id", "school_year_id", "period_number", "start_time", "end_time",
		"type", "label", "created_at", "updated_at",
	})
}

func TestPeriodRepositoryListRegularOrdersByStartTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	rows := periodRows().
		AddRow("period-1", "school-1", "year-1", 1, "08:00", "08:45", "regular", nil, time.Now(), time.Now()).
		AddRow("period-2", "school-1", "year-1", 2, "09:00", "09:45", "regular", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM period_definitions WHERE school_id = $1 AND school_year_id = $2 AND type = $3 ORDER BY start_time ASC, period_number ASC")).
		WithArgs("school-1", "year-1", models.PeriodTypeRegular).
		WillReturnRows(rows)

	periods, err := repo.ListRegular(context.Background(), "school-1", "year-1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "08:00", periods[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO period_definitions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.PeriodDefinition{
		SchoolID:     "school-1",
		SchoolYearID: "year-1",
		PeriodNumber: 1,
		StartTime:    "08:00",
		EndTime:      "08:45",
		Type:         models.PeriodTypeRegular,
	}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.NotEmpty(t, period.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM period_definitions WHERE id = $1")).
		WithArgs("period-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "period-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
