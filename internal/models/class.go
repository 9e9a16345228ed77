package models

import "time"

// GradeLevel groups classes of the same grade within a school.
type GradeLevel struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EducationalSystem is a study track whose curricula apply to classes
// that carry no curriculum of their own.
type EducationalSystem struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Class is a group of students for one academic year.
type Class struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	SchoolID            string    `db:"school_id" json:"school_id"`
	SchoolYearID        string    `db:"school_year_id" json:"school_year_id"`
	GradeLevelID        string    `db:"grade_level_id" json:"grade_level_id"`
	EducationalSystemID string    `db:"educational_system_id" json:"educational_system_id"`
	CurriculumID        *string   `db:"curriculum_id" json:"curriculum_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail enriches a class with grade level naming for responses.
type ClassDetail struct {
	Class
	GradeLevelName        string `db:"grade_level_name" json:"grade_level_name"`
	EducationalSystemName string `db:"educational_system_name" json:"educational_system_name"`
}
