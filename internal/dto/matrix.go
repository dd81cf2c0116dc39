package dto

import (
	"time"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

// GridQuery selects the academic year to assemble.
type GridQuery struct {
	Year string `form:"year" json:"year"`
}

// GridPeriod describes one row of the grid.
type GridPeriod struct {
	Type  models.PeriodType `json:"type"`
	Value string            `json:"value"`
}

// GridCell is the per-period slot payload inside a class column.
type GridCell struct {
	CellID        string            `json:"cellId"`
	PeriodType    models.PeriodType `json:"periodType"`
	PeriodValue   string            `json:"periodValue"`
	Status        models.CellStatus `json:"status"`
	ItemCount     int               `json:"itemCount"`
	ItemIDs       []string          `json:"itemIds"`
	SharedWith    []string          `json:"sharedWith,omitempty"`
	ScheduledDate *time.Time        `json:"scheduledDate,omitempty"`
	StartTime     *string           `json:"startTime,omitempty"`
	EndTime       *string           `json:"endTime,omitempty"`
	Editable      bool              `json:"editable"`
}

// GridColumn is one class column annotated with curriculum and access.
type GridColumn struct {
	ClassCode  string                       `json:"classCode"`
	Access     models.AccessLevel           `json:"access"`
	Editable   bool                         `json:"editable"`
	Curriculum *models.CurriculumResolution `json:"curriculum"`
	Cells      map[string]GridCell          `json:"cells"`
}

// GridResponse is the assembled column-per-class, row-per-period structure.
type GridResponse struct {
	AcademicYear string       `json:"academicYear"`
	Periods      []GridPeriod `json:"periods"`
	Columns      []GridColumn `json:"columns"`
	CellsCreated int          `json:"cellsCreated"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}

// AttachItemRequest attaches one assessment item to a cell.
type AttachItemRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// UpdateScheduleRequest partially updates a cell's schedule; nil fields are
// left unchanged.
type UpdateScheduleRequest struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"startTime" validate:"omitempty"`
	EndTime   *string `json:"endTime" validate:"omitempty"`
}

// SetStatusRequest applies an explicit lifecycle action to a cell.
type SetStatusRequest struct {
	Status models.CellStatus `json:"status" validate:"required,oneof=IN_PROGRESS COMPLETED DRAFT"`
}

// CloneTarget addresses a destination coordinate for cell cloning.
type CloneTarget struct {
	ClassCode   string            `json:"class" validate:"required"`
	PeriodType  models.PeriodType `json:"periodType" validate:"required,oneof=MONTHLY QUARTERLY"`
	PeriodValue string            `json:"periodValue" validate:"required"`
}

// CloneRequest propagates a cell's content to other coordinates.
type CloneRequest struct {
	Targets []CloneTarget `json:"targets" validate:"required,min=1,dive"`
}

// CloneResponse lists the cells the source was propagated to.
type CloneResponse struct {
	SourceCellID  string   `json:"sourceCellId"`
	ClonedCellIDs []string `json:"clonedCellIds"`
}

// CellResponse is the single-cell payload returned by mutations.
type CellResponse struct {
	Cell     models.MatrixCell `json:"cell"`
	ItemIDs  []string          `json:"itemIds"`
	Attached *bool             `json:"attached,omitempty"`
	Detached *bool             `json:"detached,omitempty"`
}

// BulkAssignRequest attaches every item to every cell, best effort.
type BulkAssignRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1"`
	CellIDs []string `json:"cell_ids" validate:"required,min=1"`
}

// BulkAssignError records one failed (item, cell) pair.
type BulkAssignError struct {
	ItemID  string `json:"itemId"`
	CellID  string `json:"cellId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkAssignResponse reports per-pair outcomes; succeeded+failed always
// equals len(items) * len(cells).
type BulkAssignResponse struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    []BulkAssignError `json:"errors"`
}

// CurriculumQuery selects a class/year pair for resolution.
type CurriculumQuery struct {
	Class string `form:"class" json:"class"`
	Year  string `form:"year" json:"year"`
}

// UpsertCurriculumMappingRequest creates or replaces a mapping row.
type UpsertCurriculumMappingRequest struct {
	ClassCode       string `json:"classCode" validate:"required"`
	AcademicYear    string `json:"academicYear" validate:"required"`
	Priority        int    `json:"priority" validate:"min=1"`
	CurriculumLevel string `json:"curriculumLevel" validate:"required"`
	Active          *bool  `json:"active"`
}

// UpsertAccessAssignmentRequest grants or replaces a teacher's base access
// level on a class.
type UpsertAccessAssignmentRequest struct {
	TeacherID   string             `json:"teacherId" validate:"required"`
	ClassCode   string             `json:"classCode" validate:"required"`
	AccessLevel models.AccessLevel `json:"accessLevel" validate:"required,oneof=VIEW FULL CO_TEACHER NONE"`
}

// AccessAssignmentFilter narrows admin listings.
type AccessAssignmentFilter struct {
	TeacherID string `form:"teacherId" json:"teacherId"`
	ClassCode string `form:"classCode" json:"classCode"`
}
