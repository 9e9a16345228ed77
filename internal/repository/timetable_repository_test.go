package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-core-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "school_year_id", "schedule_id", "class_id", "subject_id", "teachers",
		"room_id", "day_of_week", "start_time", "end_time", "status", "created_at", "updated_at",
	})
}

func TestTimetableRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := slotRows().
		AddRow("slot-1", "year-1", nil, "class-1", "math", "{teacher-1}",
			nil, "Monday", "08:00", "08:45", "ready", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_slots WHERE school_year_id = $1 AND class_id = $2 ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("year-1", "class-1").
		WillReturnRows(rows)

	slots, err := repo.ListByClass(context.Background(), "year-1", "class-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, []string{"teacher-1"}, []string(slots[0].Teachers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByTeacherDayMatchesArrayMembership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := slotRows().
		AddRow("slot-1", "year-1", nil, "class-1", "math", "{teacher-1,teacher-2}",
			nil, "Monday", "08:00", "08:45", "ready", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_year_id = $1 AND $2 = ANY(teachers) AND day_of_week = $3")).
		WithArgs("year-1", "teacher-2", "Monday").
		WillReturnRows(rows)

	slots, err := repo.ListByTeacherDay(context.Background(), "year-1", "teacher-2", "Monday")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].HasTeacher("teacher-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.TimetableSlot{
		SchoolYearID: "year-1",
		ClassID:      "class-1",
		SubjectID:    "math",
		Teachers:     []string{"teacher-1"},
		DayOfWeek:    "Monday",
		StartTime:    "08:00",
		EndTime:      "08:45",
		Status:       models.SlotStatusReady,
	}
	require.NoError(t, repo.Create(context.Background(), slot))
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySetTeachers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_slots SET teachers = $2, status = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("slot-1", pq.Array([]string{"teacher-1", "teacher-2"}), models.SlotStatusReady, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetTeachers(context.Background(), "slot-1", []string{"teacher-1", "teacher-2"}, models.SlotStatusReady)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteByClassesRunsInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_slots WHERE school_year_id = $1 AND class_id = ANY($2)")).
		WithArgs("year-1", pq.Array([]string{"class-1", "class-2"})).
		WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByClassesWithTx(context.Background(), tx, "year-1", []string{"class-1", "class-2"}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteByClassesRejectsNilTx(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	err := repo.DeleteByClassesWithTx(context.Background(), nil, "year-1", []string{"class-1"})
	require.Error(t, err)
}

func TestTimetableRepositoryDeleteByScheduleReportsCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_slots WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	deleted, err := repo.DeleteByScheduleWithTx(context.Background(), tx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkCreateInsertsEachSlot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	slots := []models.TimetableSlot{
		{SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"},
			DayOfWeek: "Monday", StartTime: "08:00", EndTime: "08:45", Status: models.SlotStatusReady},
		{SchoolYearID: "year-1", ClassID: "class-1", SubjectID: "math", Teachers: []string{"teacher-1"},
			DayOfWeek: "Tuesday", StartTime: "08:00", EndTime: "08:45", Status: models.SlotStatusReady},
	}

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.BulkCreateWithTx(context.Background(), tx, slots))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, slots[0].ID)
	assert.NotEmpty(t, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCountByYearAndTimeRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_slots ts")).
		WithArgs("school-1", "year-1", "08:00", "08:45").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByYearAndTimeRange(context.Background(), "school-1", "year-1", "08:00", "08:45")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
