package dto

// CreateScheduleRequest opens a new timetable version for a class.
type CreateScheduleRequest struct {
	Name         string `json:"name" validate:"required"`
	SchoolYearID string `json:"schoolYearId" validate:"required"`
	ClassID      string `json:"classId" validate:"required"`
	StartDate    string `json:"startDate" validate:"required"`
	EndDate      string `json:"endDate" validate:"required"`
}

// UpdateScheduleRequest edits a timetable version. Zero values leave the
// corresponding field untouched.
type UpdateScheduleRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// AttachScheduleFileRequest records an uploaded spreadsheet for a version.
type AttachScheduleFileRequest struct {
	FileURL  string `json:"fileUrl" validate:"required"`
	FileName string `json:"fileName" validate:"required"`
}

// DeleteScheduleResult reports the cascade size of a version delete.
type DeleteScheduleResult struct {
	DeletedSlots int `json:"deletedSlots"`
}
