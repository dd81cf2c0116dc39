package models

import "time"

// AccessLevel is the granted capability of a teacher on a class.
type AccessLevel string

const (
	AccessNone      AccessLevel = "NONE"
	AccessView      AccessLevel = "VIEW"
	AccessCoTeacher AccessLevel = "CO_TEACHER"
	AccessFull      AccessLevel = "FULL"
)

// Rank orders levels so upgrades never downgrade.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessFull:
		return 3
	case AccessCoTeacher:
		return 2
	case AccessView:
		return 1
	}
	return 0
}

// CanEdit reports whether the level permits mutations on the class's cells.
func (l AccessLevel) CanEdit() bool {
	return l == AccessFull
}

// CanView reports whether the level permits reading the class's cells.
func (l AccessLevel) CanView() bool {
	return l != AccessNone && l != ""
}

// ClassAccessAssignment is the explicit (teacher, class) access row. At most
// one active row exists per pair; revocation deactivates instead of deleting
// so history survives.
type ClassAccessAssignment struct {
	ID          string      `db:"id" json:"id"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	ClassCode   string      `db:"class_code" json:"class_code"`
	AccessLevel AccessLevel `db:"access_level" json:"access_level"`
	Active      bool        `db:"active" json:"active"`
	StartsAt    time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt      *time.Time  `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
