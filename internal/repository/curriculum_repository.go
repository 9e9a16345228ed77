package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

// CurriculumRepository provides read access to curricula and their subjects.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new curriculum repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListSubjects returns the subjects of one curriculum with their weekly
// period counts, in curriculum entry order.
func (r *CurriculumRepository) ListSubjects(ctx context.Context, curriculumID string) ([]models.SubjectDemand, error) {
	const query = `SELECT s.id, s.name, s.school_id, s.need_function_room, s.created_at, s.updated_at, cs.periods_per_week
FROM curriculum_subjects cs
JOIN subjects s ON s.id = cs.subject_id
WHERE cs.curriculum_id = $1
ORDER BY cs.id ASC`
	var demands []models.SubjectDemand
	if err := r.db.SelectContext(ctx, &demands, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum subjects: %w", err)
	}
	return demands, nil
}

// ListByEducationalSystem returns the curricula attached to an educational system.
func (r *CurriculumRepository) ListByEducationalSystem(ctx context.Context, educationalSystemID string) ([]models.Curriculum, error) {
	const query = `SELECT id, name, school_id, educational_system_id, created_at, updated_at FROM curricula WHERE educational_system_id = $1 ORDER BY created_at ASC`
	var curricula []models.Curriculum
	if err := r.db.SelectContext(ctx, &curricula, query, educationalSystemID); err != nil {
		return nil, fmt.Errorf("list curricula by educational system: %w", err)
	}
	return curricula, nil
}
