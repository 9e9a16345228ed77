package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

// SubjectRepository provides read access to subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, school_id, need_function_room, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByGradeLevel returns the subjects taught in a grade level of a
// school. This is the curriculum fallback: each subject counts as one
// period per week when no curriculum exists anywhere.
func (r *SubjectRepository) ListByGradeLevel(ctx context.Context, schoolID, gradeLevelID string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.name, s.school_id, s.need_function_room, s.created_at, s.updated_at
FROM subjects s
JOIN subject_grade_levels sgl ON sgl.subject_id = s.id
WHERE s.school_id = $1 AND sgl.grade_level_id = $2
ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID, gradeLevelID); err != nil {
		return nil, fmt.Errorf("list subjects by grade level: %w", err)
	}
	return subjects, nil
}
