package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-core-api/internal/models"
)

func teacherRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "school_id", "active", "created_at", "updated_at",
	})
}

func TestTeacherRepositoryListEligibleFiltersOnSubjectAndGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := teacherRows().
		AddRow("teacher-1", "Nguyen Van A", "a@school.vn", "school-1", true, time.Now(), time.Now()).
		AddRow("teacher-2", "Tran Thi B", "b@school.vn", "school-1", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN teacher_subjects tsj ON tsj.teacher_id = t.id")).
		WithArgs("school-1", "subject-1", "grade-1").
		WillReturnRows(rows)

	teachers, err := repo.ListEligible(context.Background(), "school-1", "subject-1", "grade-1")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "teacher-1", teachers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateAssignmentAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teaching_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.TeachingAssignment{
		TeacherID: "teacher-1",
		ClassID:   "class-1",
		SubjectID: "subject-1",
	}
	require.NoError(t, repo.CreateAssignment(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteAssignmentsUsesArrayFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teaching_assignments WHERE teacher_id = $1 AND class_id = $2 AND subject_id = ANY($3)")).
		WithArgs("teacher-1", "class-1", pq.Array([]string{"subject-1", "subject-2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DeleteAssignments(context.Background(), "teacher-1", "class-1", []string{"subject-1", "subject-2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteAssignmentByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teaching_assignments WHERE id = $1")).
		WithArgs("assign-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteAssignmentByID(context.Background(), "assign-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
