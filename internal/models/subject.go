package models

import "time"

// Subject represents a teachable unit.
type Subject struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	SchoolID         string    `db:"school_id" json:"school_id"`
	NeedFunctionRoom bool      `db:"need_function_room" json:"need_function_room"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// mainSubjectNames is the fixed set of core subjects placed before all
// others during allocation.
var mainSubjectNames = map[string]struct{}{
	"Toán":    {},
	"Ngữ văn": {},
	"Vật lý":  {},
}

// IsMainSubject reports whether the subject belongs to the core set.
func (s Subject) IsMainSubject() bool {
	_, ok := mainSubjectNames[s.Name]
	return ok
}

// Curriculum is a named programme of subjects with weekly period counts.
type Curriculum struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	SchoolID            string    `db:"school_id" json:"school_id"`
	EducationalSystemID *string   `db:"educational_system_id" json:"educational_system_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// CurriculumSubject links one subject into a curriculum with its demand.
type CurriculumSubject struct {
	ID             string `db:"id" json:"id"`
	CurriculumID   string `db:"curriculum_id" json:"curriculum_id"`
	SubjectID      string `db:"subject_id" json:"subject_id"`
	PeriodsPerWeek int    `db:"periods_per_week" json:"periods_per_week"`
}

// SubjectDemand is a subject joined with its weekly period requirement,
// as resolved from a curriculum or the grade-level fallback.
type SubjectDemand struct {
	Subject
	PeriodsPerWeek int `db:"periods_per_week" json:"periods_per_week"`
}
