package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sis-core-api/internal/models"
)

const slotColumns = `id, school_year_id, schedule_id, class_id, subject_id, teachers, room_id, day_of_week, start_time, end_time, status, created_at, updated_at`

// TimetableRepository provides persistence for timetable slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// BeginTxx exposes transaction creation for multi-step writes.
func (r *TimetableRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByID loads a slot by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE id = $1`, slotColumns)
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByClass returns a class's slots for a school year ordered by day/time.
func (r *TimetableRepository) ListByClass(ctx context.Context, schoolYearID, classID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1 AND class_id = $2 ORDER BY day_of_week ASC, start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID, classID); err != nil {
		return nil, fmt.Errorf("list slots by class: %w", err)
	}
	return slots, nil
}

// ListByYear returns every slot of a school year across all classes, used
// to seed occupancy when regenerating a single class.
func (r *TimetableRepository) ListByYear(ctx context.Context, schoolYearID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID); err != nil {
		return nil, fmt.Errorf("list slots by year: %w", err)
	}
	return slots, nil
}

// ListByClassDay returns a class's slots for one day, used by the conflict validator.
func (r *TimetableRepository) ListByClassDay(ctx context.Context, schoolYearID, classID, dayOfWeek string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1 AND class_id = $2 AND day_of_week = $3`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID, classID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list slots by class and day: %w", err)
	}
	return slots, nil
}

// ListByTeacherDay returns every slot across all classes that contains the
// teacher on one day of one school year.
func (r *TimetableRepository) ListByTeacherDay(ctx context.Context, schoolYearID, teacherID, dayOfWeek string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1 AND $2 = ANY(teachers) AND day_of_week = $3`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list slots by teacher and day: %w", err)
	}
	return slots, nil
}

// ListByTeacher returns a teacher's slots for a school year ordered by day/time.
func (r *TimetableRepository) ListByTeacher(ctx context.Context, schoolYearID, teacherID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1 AND $2 = ANY(teachers) ORDER BY day_of_week ASC, start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID, teacherID); err != nil {
		return nil, fmt.Errorf("list slots by teacher: %w", err)
	}
	return slots, nil
}

// ListByRoomDay returns slots occupying a room on one day of one school year.
func (r *TimetableRepository) ListByRoomDay(ctx context.Context, schoolYearID, roomID, dayOfWeek string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE school_year_id = $1 AND room_id = $2 AND day_of_week = $3`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolYearID, roomID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list slots by room and day: %w", err)
	}
	return slots, nil
}

// ListByClassSubjects returns every slot of a class for the given subjects,
// used by the assignment synchronizer.
func (r *TimetableRepository) ListByClassSubjects(ctx context.Context, classID string, subjectIDs []string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE class_id = $1 AND subject_id = ANY($2)`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, classID, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list slots by class and subjects: %w", err)
	}
	return slots, nil
}

// ListRoomlessBySubject returns slots for a subject that carry no room yet.
func (r *TimetableRepository) ListRoomlessBySubject(ctx context.Context, subjectID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE subject_id = $1 AND room_id IS NULL`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, subjectID); err != nil {
		return nil, fmt.Errorf("list roomless slots by subject: %w", err)
	}
	return slots, nil
}

// CountByYearAndTimeRange counts slots of a school occupying an exact time
// range, used to block deletion of referenced period definitions.
func (r *TimetableRepository) CountByYearAndTimeRange(ctx context.Context, schoolID, schoolYearID, startTime, endTime string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_slots ts
JOIN classes c ON c.id = ts.class_id
WHERE c.school_id = $1 AND ts.school_year_id = $2 AND ts.start_time = $3 AND ts.end_time = $4`
	var total int
	if err := r.db.GetContext(ctx, &total, query, schoolID, schoolYearID, startTime, endTime); err != nil {
		return 0, fmt.Errorf("count slots by time range: %w", err)
	}
	return total, nil
}

// Create stores a new slot record.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO timetable_slots (id, school_year_id, schedule_id, class_id, subject_id, teachers, room_id, day_of_week, start_time, end_time, status, created_at, updated_at)
VALUES (:id, :school_year_id, :schedule_id, :class_id, :subject_id, :teachers, :room_id, :day_of_week, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// Update modifies a slot record.
func (r *TimetableRepository) Update(ctx context.Context, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET school_year_id = :school_year_id, schedule_id = :schedule_id, class_id = :class_id, subject_id = :subject_id, teachers = :teachers, room_id = :room_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

// SetTeachers replaces a slot's teacher set and status.
func (r *TimetableRepository) SetTeachers(ctx context.Context, slotID string, teachers []string, status models.SlotStatus) error {
	const query = `UPDATE timetable_slots SET teachers = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, slotID, pq.Array(teachers), status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set slot teachers: %w", err)
	}
	return nil
}

// SetRoom assigns a room and status to a slot.
func (r *TimetableRepository) SetRoom(ctx context.Context, slotID, roomID string, status models.SlotStatus) error {
	const query = `UPDATE timetable_slots SET room_id = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, slotID, roomID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set slot room: %w", err)
	}
	return nil
}

// Delete removes a slot by id.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// DeleteByClassesWithTx wipes all slots of the given classes for a school
// year inside the caller's transaction so a regeneration run commits its
// delete and bulk insert atomically.
func (r *TimetableRepository) DeleteByClassesWithTx(ctx context.Context, tx *sqlx.Tx, schoolYearID string, classIDs []string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE school_year_id = $1 AND class_id = ANY($2)`, schoolYearID, pq.Array(classIDs)); err != nil {
		return fmt.Errorf("delete slots by classes: %w", err)
	}
	return nil
}

// DeleteByScheduleWithTx removes all slots owned by a schedule version and
// reports how many went away.
func (r *TimetableRepository) DeleteByScheduleWithTx(ctx context.Context, tx *sqlx.Tx, scheduleID string) (int, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE schedule_id = $1`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("delete slots by schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete slots by schedule: %w", err)
	}
	return int(affected), nil
}

// BulkCreateWithTx inserts slots using an existing transaction.
func (r *TimetableRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.TimetableSlot) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertSlots(ctx, tx, slots)
}

func (r *TimetableRepository) bulkInsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	now := time.Now().UTC()
	for i := range slots {
		payload := slots[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_slots (id, school_year_id, schedule_id, class_id, subject_id, teachers, room_id, day_of_week, start_time, end_time, status, created_at, updated_at) VALUES (:id, :school_year_id, :schedule_id, :class_id, :subject_id, :teachers, :room_id, :day_of_week, :start_time, :end_time, :status, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert slot: %w", err)
		}
		slots[i] = payload
	}
	return nil
}
