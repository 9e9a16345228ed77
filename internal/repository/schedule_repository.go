package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-core-api/internal/models"
)

const scheduleColumns = `id, name, school_year_id, class_id, start_date, end_date, status, file_url, file_name, created_at, updated_at`

// ScheduleRepository provides persistence for timetable schedule versions.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByClassYear returns schedule versions for a class and year, newest first.
func (r *ScheduleRepository) ListByClassYear(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_schedules WHERE school_year_id = $1 AND class_id = $2 ORDER BY created_at DESC`, scheduleColumns)
	var schedules []models.TimetableSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, schoolYearID, classID); err != nil {
		return nil, fmt.Errorf("list timetable schedules: %w", err)
	}
	return schedules, nil
}

// FindByID loads a schedule version by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.TimetableSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_schedules WHERE id = $1`, scheduleColumns)
	var schedule models.TimetableSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindActiveOverlapping returns the first active schedule of the class
// whose [start_date, end_date) window intersects the given range,
// excluding excludeID when updating an existing version.
func (r *ScheduleRepository) FindActiveOverlapping(ctx context.Context, schoolYearID, classID string, start, end time.Time, excludeID string) (*models.TimetableSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_schedules
WHERE school_year_id = $1 AND class_id = $2 AND status = $3 AND id <> $4
AND start_date < $6 AND $5 < end_date
LIMIT 1`, scheduleColumns)
	var schedule models.TimetableSchedule
	if err := r.db.GetContext(ctx, &schedule, query, schoolYearID, classID, models.ScheduleStatusActive, excludeID, start, end); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create stores a new schedule version.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.TimetableSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusActive
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO timetable_schedules (id, name, school_year_id, class_id, start_date, end_date, status, file_url, file_name, created_at, updated_at)
VALUES (:id, :name, :school_year_id, :class_id, :start_date, :end_date, :status, :file_url, :file_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create timetable schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule version.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.TimetableSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_schedules SET name = :name, start_date = :start_date, end_date = :end_date, status = :status, file_url = :file_url, file_name = :file_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update timetable schedule: %w", err)
	}
	return nil
}

// DeleteWithTx removes a schedule version inside the caller's transaction
// so the owned-slot cascade commits atomically with it.
func (r *ScheduleRepository) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable schedule: %w", err)
	}
	return nil
}
