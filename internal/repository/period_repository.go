package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

const periodColumns = `id, school_id, school_year_id, period_number, start_time, end_time, type, label, created_at, updated_at`

// PeriodRepository provides persistence for period definitions.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListRegular returns the regular teaching periods for a school and year,
// ordered by start time. Start-time order, not period number, defines the
// display order.
func (r *PeriodRepository) ListRegular(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM period_definitions WHERE school_id = $1 AND school_year_id = $2 AND type = $3 ORDER BY start_time ASC, period_number ASC`, periodColumns)
	var periods []models.PeriodDefinition
	if err := r.db.SelectContext(ctx, &periods, query, schoolID, schoolYearID, models.PeriodTypeRegular); err != nil {
		return nil, fmt.Errorf("list regular periods: %w", err)
	}
	return periods, nil
}

// ListByYear returns every period definition of any type for a school and year.
func (r *PeriodRepository) ListByYear(ctx context.Context, schoolID, schoolYearID string) ([]models.PeriodDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM period_definitions WHERE school_id = $1 AND school_year_id = $2 ORDER BY start_time ASC, period_number ASC`, periodColumns)
	var periods []models.PeriodDefinition
	if err := r.db.SelectContext(ctx, &periods, query, schoolID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a period definition by id.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.PeriodDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM period_definitions WHERE id = $1`, periodColumns)
	var period models.PeriodDefinition
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create stores a new period definition.
func (r *PeriodRepository) Create(ctx context.Context, period *models.PeriodDefinition) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO period_definitions (id, school_id, school_year_id, period_number, start_time, end_time, type, label, created_at, updated_at)
VALUES (:id, :school_id, :school_year_id, :period_number, :start_time, :end_time, :type, :label, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period definition: %w", err)
	}
	return nil
}

// Update modifies an existing period definition.
func (r *PeriodRepository) Update(ctx context.Context, period *models.PeriodDefinition) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE period_definitions SET start_time = :start_time, end_time = :end_time, label = :label, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period definition: %w", err)
	}
	return nil
}

// Delete removes a period definition by id.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM period_definitions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete period definition: %w", err)
	}
	return nil
}
