package models

import "time"

// PeriodType classifies entries in the daily schedule skeleton. Only
// regular periods are addressable by the timetable.
type PeriodType string

const (
	PeriodTypeRegular   PeriodType = "regular"
	PeriodTypeMorning   PeriodType = "morning"
	PeriodTypeLunch     PeriodType = "lunch"
	PeriodTypeNap       PeriodType = "nap"
	PeriodTypeSnack     PeriodType = "snack"
	PeriodTypeDismissal PeriodType = "dismissal"
)

// PeriodDefinition is one teaching period for a (school, school year).
// PeriodNumber is the stable internal key; the 1..N display index is
// re-derived from the start-time ordering on every read and never stored.
type PeriodDefinition struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     string     `db:"school_id" json:"school_id"`
	SchoolYearID string     `db:"school_year_id" json:"school_year_id"`
	PeriodNumber int        `db:"period_number" json:"period_number"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Type         PeriodType `db:"type" json:"type"`
	Label        *string    `db:"label" json:"label,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayPeriod pairs a period definition with its derived display index.
type DisplayPeriod struct {
	PeriodDefinition
	DisplayIndex int `json:"display_index"`
}
