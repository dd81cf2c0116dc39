package models

import "time"

// CurriculumMapping assigns a curriculum level to a class for a year.
// Priority 1 is the primary assignment, 2 the secondary; lower wins in
// display precedence.
type CurriculumMapping struct {
	ID              string    `db:"id" json:"id"`
	ClassCode       string    `db:"class_code" json:"class_code"`
	AcademicYear    string    `db:"academic_year" json:"academic_year"`
	Priority        int       `db:"priority" json:"priority"`
	CurriculumLevel string    `db:"curriculum_level" json:"curriculum_level"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CurriculumResolution is the resolver output. Assigned is false when no
// active mapping exists for the key; callers always receive the sentinel,
// never an absent value.
type CurriculumResolution struct {
	ClassCode    string              `json:"class_code"`
	AcademicYear string              `json:"academic_year"`
	Assigned     bool                `json:"assigned"`
	Primary      *CurriculumMapping  `json:"primary,omitempty"`
	Secondary    *CurriculumMapping  `json:"secondary,omitempty"`
	All          []CurriculumMapping `json:"all"`
}

// UnassignedCurriculum builds the explicit sentinel for unmapped classes.
func UnassignedCurriculum(classCode, academicYear string) *CurriculumResolution {
	return &CurriculumResolution{
		ClassCode:    classCode,
		AcademicYear: academicYear,
		Assigned:     false,
		All:          []CurriculumMapping{},
	}
}
