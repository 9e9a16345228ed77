package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

// ClassRepository provides read access to classes and their lookups.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, school_id, school_year_id, grade_level_id, educational_system_id, curriculum_id, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListBySchoolYear returns every class of a school for a school year with
// grade level and educational system names resolved, in stable name order.
func (r *ClassRepository) ListBySchoolYear(ctx context.Context, schoolID, schoolYearID string) ([]models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.school_id, c.school_year_id, c.grade_level_id, c.educational_system_id, c.curriculum_id, c.created_at, c.updated_at,
gl.name AS grade_level_name, es.name AS educational_system_name
FROM classes c
JOIN grade_levels gl ON gl.id = c.grade_level_id
JOIN educational_systems es ON es.id = c.educational_system_id
WHERE c.school_id = $1 AND c.school_year_id = $2
ORDER BY c.name ASC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, schoolID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list classes by school year: %w", err)
	}
	return classes, nil
}
