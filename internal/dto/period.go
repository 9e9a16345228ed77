package dto

// CreatePeriodDefinitionRequest seeds one period of the daily skeleton.
type CreatePeriodDefinitionRequest struct {
	SchoolID     string  `json:"schoolId" validate:"required"`
	PeriodNumber int     `json:"periodNumber" validate:"min=0,max=25"`
	StartTime    string  `json:"startTime" validate:"required,len=5"`
	EndTime      string  `json:"endTime" validate:"required,len=5"`
	Type         string  `json:"type" validate:"omitempty,oneof=regular morning lunch nap snack dismissal"`
	Label        *string `json:"label"`
}

// UpdatePeriodDefinitionRequest edits an existing period definition.
type UpdatePeriodDefinitionRequest struct {
	StartTime string  `json:"startTime" validate:"omitempty,len=5"`
	EndTime   string  `json:"endTime" validate:"omitempty,len=5"`
	Label     *string `json:"label"`
}
