package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sis-core-api/internal/models"
)

// TeacherRepository provides access to teachers and teaching assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, school_id, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListEligible returns the teachers of a school qualified for both the
// subject and the grade level, in stable creation order. The allocator
// takes the first free candidate from this order, so the order defines
// whole-school determinism.
func (r *TeacherRepository) ListEligible(ctx context.Context, schoolID, subjectID, gradeLevelID string) ([]models.Teacher, error) {
	const query = `SELECT t.id, t.full_name, t.email, t.school_id, t.active, t.created_at, t.updated_at
FROM teachers t
JOIN teacher_subjects tsj ON tsj.teacher_id = t.id
JOIN teacher_grade_levels tgl ON tgl.teacher_id = t.id
WHERE t.school_id = $1 AND tsj.subject_id = $2 AND tgl.grade_level_id = $3 AND t.active
ORDER BY t.created_at ASC, t.id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, schoolID, subjectID, gradeLevelID); err != nil {
		return nil, fmt.Errorf("list eligible teachers: %w", err)
	}
	return teachers, nil
}

// ListAssignmentsByTeacher returns every teaching-assignment row of a teacher.
func (r *TeacherRepository) ListAssignmentsByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, created_at FROM teaching_assignments WHERE teacher_id = $1 ORDER BY created_at ASC, id ASC`
	var assignments []models.TeachingAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

// CreateAssignment stores one (teacher, class, subject) row.
func (r *TeacherRepository) CreateAssignment(ctx context.Context, assignment *models.TeachingAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teaching_assignments (id, teacher_id, class_id, subject_id, created_at) VALUES (:id, :teacher_id, :class_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teaching assignment: %w", err)
	}
	return nil
}

// DeleteAssignments removes the teacher's rows for the given class and subjects.
func (r *TeacherRepository) DeleteAssignments(ctx context.Context, teacherID, classID string, subjectIDs []string) error {
	const query = `DELETE FROM teaching_assignments WHERE teacher_id = $1 AND class_id = $2 AND subject_id = ANY($3)`
	if _, err := r.db.ExecContext(ctx, query, teacherID, classID, pq.Array(subjectIDs)); err != nil {
		return fmt.Errorf("delete teaching assignments: %w", err)
	}
	return nil
}

// DeleteAssignmentByID removes a single assignment row, used when
// collapsing duplicate rows for the same (teacher, class, subject).
func (r *TeacherRepository) DeleteAssignmentByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teaching assignment: %w", err)
	}
	return nil
}
