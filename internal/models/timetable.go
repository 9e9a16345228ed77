package models

import (
	"time"

	"github.com/lib/pq"
)

// SlotStatus is the lifecycle state of a timetable slot.
type SlotStatus string

const (
	SlotStatusDraft SlotStatus = "draft"
	SlotStatusReady SlotStatus = "ready"
)

// MaxTeachersPerSlot bounds the teacher set of any slot.
const MaxTeachersPerSlot = 2

// DaysOfWeek lists scheduling days in grid order.
var DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsValidDayOfWeek reports whether day names a known weekday.
func IsValidDayOfWeek(day string) bool {
	for _, d := range DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// TimetableSlot is one persisted (class, subject, teachers, room, day,
// time-range) assignment. RoomID is nil while no room has been chosen;
// a room id equal to the class id denotes the class's home room.
type TimetableSlot struct {
	ID           string         `db:"id" json:"id"`
	SchoolYearID string         `db:"school_year_id" json:"school_year_id"`
	ScheduleID   *string        `db:"schedule_id" json:"schedule_id,omitempty"`
	ClassID      string         `db:"class_id" json:"class_id"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	Teachers     pq.StringArray `db:"teachers" json:"teachers"`
	RoomID       *string        `db:"room_id" json:"room_id,omitempty"`
	DayOfWeek    string         `db:"day_of_week" json:"day_of_week"`
	StartTime    string         `db:"start_time" json:"start_time"`
	EndTime      string         `db:"end_time" json:"end_time"`
	Status       SlotStatus     `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasTeacher reports whether the slot's teacher set contains teacherID.
func (s TimetableSlot) HasTeacher(teacherID string) bool {
	for _, id := range s.Teachers {
		if id == teacherID {
			return true
		}
	}
	return false
}

// Overlaps reports whether two half-open time ranges on the same day
// intersect. Wall-clock "HH:MM" strings compare correctly as text.
func Overlaps(day1, start1, end1, day2, start2, end2 string) bool {
	if day1 != day2 {
		return false
	}
	return start1 < end2 && start2 < end1
}

// TimetableConflict describes an existing slot blocking a manual write.
type TimetableConflict struct {
	SlotID       string   `json:"slot_id"`
	SchoolYearID string   `json:"school_year_id"`
	ClassID      string   `json:"class_id"`
	SubjectID    string   `json:"subject_id"`
	Teachers     []string `json:"teachers"`
	RoomID       *string  `json:"room_id,omitempty"`
	DayOfWeek    string   `json:"day_of_week"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Dimension    string   `json:"dimension"`
}

// Conflict dimensions.
const (
	ConflictDimensionClass   = "CLASS"
	ConflictDimensionTeacher = "TEACHER"
	ConflictDimensionRoom    = "ROOM"
)

// TimetableConflictError is returned when a slot collides with an existing one.
type TimetableConflictError struct {
	Dimension string            `json:"dimension"`
	Message   string            `json:"message"`
	Conflict  TimetableConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *TimetableConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
