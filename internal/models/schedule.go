package models

import "time"

// ScheduleStatus is the lifecycle state of a timetable schedule version.
type ScheduleStatus string

const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusInactive ScheduleStatus = "inactive"
)

// TimetableSchedule is a named, date-ranged version of a class's
// timetable. At most one active schedule per class may cover any given
// calendar date; the [StartDate, EndDate) window is checked for overlap
// on create and update.
type TimetableSchedule struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	SchoolYearID string         `db:"school_year_id" json:"school_year_id"`
	ClassID      string         `db:"class_id" json:"class_id"`
	StartDate    time.Time      `db:"start_date" json:"start_date"`
	EndDate      time.Time      `db:"end_date" json:"end_date"`
	Status       ScheduleStatus `db:"status" json:"status"`
	FileURL      *string        `db:"file_url" json:"file_url,omitempty"`
	FileName     *string        `db:"file_name" json:"file_name,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
