package dto

// GenerateConfig bounds the allocation grid for a whole-school run.
type GenerateConfig struct {
	DaysPerWeek   int `json:"daysPerWeek" validate:"omitempty,min=1,max=7"`
	PeriodsPerDay int `json:"periodsPerDay" validate:"omitempty,min=1,max=10"`
}

// UnplacedDemand reports a subject that could not reach its weekly period count.
type UnplacedDemand struct {
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Required    int    `json:"required"`
	Placed      int    `json:"placed"`
}

// GenerateResult is the structured outcome of a generation run. Placement
// shortfalls ride along in Unplaced; they do not fail the run.
type GenerateResult struct {
	Success        bool             `json:"success"`
	Message        string           `json:"message"`
	TimetableCount int              `json:"timetableCount"`
	Unplaced       []UnplacedDemand `json:"unplaced,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
}
