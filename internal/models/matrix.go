package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PeriodType distinguishes monthly from quarterly scheduling buckets.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "MONTHLY"
	PeriodQuarterly PeriodType = "QUARTERLY"
)

var monthValues = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

var quarterValues = []string{"Q1", "Q2", "Q3", "Q4"}

// PeriodValues returns the ordered value set for a period type.
func PeriodValues(pt PeriodType) []string {
	switch pt {
	case PeriodMonthly:
		return monthValues
	case PeriodQuarterly:
		return quarterValues
	}
	return nil
}

// ValidPeriod reports whether the type/value pair names a real bucket.
func ValidPeriod(pt PeriodType, value string) bool {
	for _, v := range PeriodValues(pt) {
		if v == value {
			return true
		}
	}
	return false
}

// CellStatus is the lifecycle state of a matrix cell.
type CellStatus string

const (
	CellStatusEmpty      CellStatus = "EMPTY"
	CellStatusScheduled  CellStatus = "SCHEDULED"
	CellStatusInProgress CellStatus = "IN_PROGRESS"
	CellStatusCompleted  CellStatus = "COMPLETED"
	CellStatusDraft      CellStatus = "DRAFT"
)

// AutoDerived reports whether the status is maintained by attach/detach
// rather than explicit caller action.
func (s CellStatus) AutoDerived() bool {
	return s == CellStatusEmpty || s == CellStatusScheduled
}

// ExplicitStatus reports whether the status may be set via the status endpoint.
func ExplicitStatus(s CellStatus) bool {
	switch s {
	case CellStatusInProgress, CellStatusCompleted, CellStatusDraft:
		return true
	}
	return false
}

// Coordinate identifies a cell by its natural key.
type Coordinate struct {
	ClassCode    string     `json:"class_code"`
	AcademicYear string     `json:"academic_year"`
	PeriodType   PeriodType `json:"period_type"`
	PeriodValue  string     `json:"period_value"`
}

// Key renders the coordinate as the bulk-read index key.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%s_%s_%s", c.ClassCode, c.PeriodType, c.PeriodValue)
}

// Validate checks the coordinate names a real period bucket.
func (c Coordinate) Validate() error {
	if c.ClassCode == "" || c.AcademicYear == "" {
		return fmt.Errorf("class_code and academic_year are required")
	}
	if !ValidPeriod(c.PeriodType, c.PeriodValue) {
		return fmt.Errorf("invalid period %s/%s", c.PeriodType, c.PeriodValue)
	}
	return nil
}

// YearCoordinates expands a class/year pair into all 16 period buckets
// (12 monthly, 4 quarterly).
func YearCoordinates(classCode, academicYear string) []Coordinate {
	coords := make([]Coordinate, 0, len(monthValues)+len(quarterValues))
	for _, m := range monthValues {
		coords = append(coords, Coordinate{ClassCode: classCode, AcademicYear: academicYear, PeriodType: PeriodMonthly, PeriodValue: m})
	}
	for _, q := range quarterValues {
		coords = append(coords, Coordinate{ClassCode: classCode, AcademicYear: academicYear, PeriodType: PeriodQuarterly, PeriodValue: q})
	}
	return coords
}

// MatrixCell is one (class, year, period) scheduling slot. The natural key
// (class_code, academic_year, period_type, period_value) is unique; cells are
// never hard-deleted, only emptied.
type MatrixCell struct {
	ID            string     `db:"id" json:"id"`
	ClassCode     string     `db:"class_code" json:"class_code"`
	AcademicYear  string     `db:"academic_year" json:"academic_year"`
	PeriodType    PeriodType `db:"period_type" json:"period_type"`
	PeriodValue   string     `db:"period_value" json:"period_value"`
	Status        CellStatus `db:"status" json:"status"`
	ScheduledDate *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	StartTime     *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime       *string    `db:"end_time" json:"end_time,omitempty"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedBy     *string    `db:"created_by" json:"created_by,omitempty"`
	ModifiedBy    *string    `db:"modified_by" json:"modified_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Coordinate returns the cell's natural key.
func (m *MatrixCell) Coordinate() Coordinate {
	return Coordinate{
		ClassCode:    m.ClassCode,
		AcademicYear: m.AcademicYear,
		PeriodType:   m.PeriodType,
		PeriodValue:  m.PeriodValue,
	}
}

// MatrixCellDetail enriches a cell with its attached item set and share list.
type MatrixCellDetail struct {
	MatrixCell
	ItemIDs    pq.StringArray `db:"item_ids" json:"item_ids"`
	SharedWith pq.StringArray `db:"shared_with" json:"shared_with"`
}
