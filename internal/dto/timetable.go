package dto

// TimeSlotRequest carries the temporal coordinates of a manual slot write.
type TimeSlotRequest struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// CreateSlotRequest is a manual single-slot creation.
type CreateSlotRequest struct {
	SchoolYearID string          `json:"schoolYearId" validate:"required"`
	ScheduleID   *string         `json:"scheduleId"`
	ClassID      string          `json:"classId" validate:"required"`
	SubjectID    string          `json:"subjectId" validate:"required"`
	Teachers     []string        `json:"teachers" validate:"required,min=1,max=2"`
	RoomID       *string         `json:"roomId"`
	TimeSlot     TimeSlotRequest `json:"timeSlot" validate:"required"`
}

// UpdateSlotRequest mirrors CreateSlotRequest for an existing slot.
type UpdateSlotRequest struct {
	SchoolYearID string          `json:"schoolYearId" validate:"required"`
	ScheduleID   *string         `json:"scheduleId"`
	ClassID      string          `json:"classId" validate:"required"`
	SubjectID    string          `json:"subjectId" validate:"required"`
	Teachers     []string        `json:"teachers" validate:"required,min=1,max=2"`
	RoomID       *string         `json:"roomId"`
	TimeSlot     TimeSlotRequest `json:"timeSlot" validate:"required"`
}

// ImportSlotRow is one spreadsheet row of a bulk timetable import. Period
// addresses arrive as 1..N display indices and are translated to period
// times before any conflict checking.
type ImportSlotRow struct {
	ClassID            string   `json:"classId" validate:"required"`
	SubjectID          string   `json:"subjectId" validate:"required"`
	Teachers           []string `json:"teachers" validate:"required,min=1,max=2"`
	RoomID             *string  `json:"roomId"`
	DayOfWeek          string   `json:"dayOfWeek" validate:"required"`
	DisplayPeriodIndex int      `json:"displayPeriodIndex" validate:"required,min=1"`
}

// ImportTimetableRequest bulk-creates slots from spreadsheet rows.
type ImportTimetableRequest struct {
	SchoolYearID string          `json:"schoolYearId" validate:"required"`
	SchoolID     string          `json:"schoolId" validate:"required"`
	Rows         []ImportSlotRow `json:"rows" validate:"required,min=1,dive"`
}

// ImportTimetableResult summarises a bulk import.
type ImportTimetableResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// GridCell is one subject occurrence in a class timetable grid.
type GridCell struct {
	SlotID       string   `json:"slotId"`
	SubjectID    string   `json:"subjectId"`
	Teachers     []string `json:"teachers"`
	RoomID       *string  `json:"roomId,omitempty"`
	Status       string   `json:"status"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	DisplayIndex int      `json:"displayIndex"`
}

// TimetableGrid is the day-by-period view of one class's week.
type TimetableGrid struct {
	ClassID      string                `json:"classId"`
	SchoolYearID string                `json:"schoolYearId"`
	Days         []string              `json:"days"`
	Periods      int                   `json:"periods"`
	Cells        map[string][]GridCell `json:"cells"`
}
