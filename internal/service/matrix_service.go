package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type matrixCellRepo interface {
	GetOrCreate(ctx context.Context, coord models.Coordinate, createdBy string) (*models.MatrixCell, bool, error)
	FindByID(ctx context.Context, id string) (*models.MatrixCell, error)
	FindDetailByID(ctx context.Context, id string) (*models.MatrixCellDetail, error)
	AttachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error)
	DetachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error)
	UpdateSchedule(ctx context.Context, cellID string, date *time.Time, startTime, endTime *string, actor string) (*models.MatrixCell, error)
	SetStatus(ctx context.Context, cellID string, status models.CellStatus, actor string) (*models.MatrixCell, error)
	CloneInto(ctx context.Context, sourceID string, target models.Coordinate, actor string) (string, error)
}

type itemCatalog interface {
	ItemExists(ctx context.Context, itemID string) (bool, error)
}

type effectiveAccessResolver interface {
	ResolveEffectiveAccess(ctx context.Context, claims *models.JWTClaims, classCodes []string) (map[string]models.AccessLevel, error)
}

// MatrixService owns single-cell operations: item attach/detach, schedule
// updates, explicit status actions and cloning. Every mutation requires
// effective FULL access on the cell's class.
type MatrixService struct {
	cells     matrixCellRepo
	items     itemCatalog
	access    effectiveAccessResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMatrixService constructs the service.
func NewMatrixService(cells matrixCellRepo, items itemCatalog, access effectiveAccessResolver, validate *validator.Validate, logger *zap.Logger) *MatrixService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatrixService{cells: cells, items: items, access: access, validator: validate, logger: logger}
}

// GetCell returns a cell with its item and share sets; the caller needs any
// access above NONE on the cell's class.
func (s *MatrixService) GetCell(ctx context.Context, claims *models.JWTClaims, cellID string) (*models.MatrixCellDetail, error) {
	detail, err := s.cells.FindDetailByID(ctx, cellID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cell not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cell")
	}
	if _, err := s.requireAccess(ctx, claims, detail.ClassCode, false); err != nil {
		return nil, err
	}
	return detail, nil
}

// AttachItem adds an assessment item to the cell's set. Idempotent: attaching
// an already attached item succeeds without effect.
func (s *MatrixService) AttachItem(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.AttachItemRequest) (*dto.CellResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attach payload")
	}

	cell, err := s.loadCellForEdit(ctx, claims, cellID)
	if err != nil {
		return nil, err
	}

	exists, err := s.items.ItemExists(ctx, req.ItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment item not found")
	}

	updated, attached, err := s.cells.AttachItem(ctx, cell.ID, req.ItemID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach item")
	}
	return s.cellResponse(ctx, updated, &attached, nil)
}

// DetachItem removes an item from the cell's set; detaching an absent item is
// a no-op, not an error.
func (s *MatrixService) DetachItem(ctx context.Context, claims *models.JWTClaims, cellID, itemID string) (*dto.CellResponse, error) {
	if itemID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item id is required")
	}

	cell, err := s.loadCellForEdit(ctx, claims, cellID)
	if err != nil {
		return nil, err
	}

	updated, detached, err := s.cells.DetachItem(ctx, cell.ID, itemID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach item")
	}
	return s.cellResponse(ctx, updated, nil, &detached)
}

// UpdateSchedule applies a partial schedule update to the cell.
func (s *MatrixService) UpdateSchedule(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.UpdateScheduleRequest) (*dto.CellResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	cell, err := s.loadCellForEdit(ctx, claims, cellID)
	if err != nil {
		return nil, err
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = &parsed
	}

	updated, err := s.cells.UpdateSchedule(ctx, cell.ID, date, req.StartTime, req.EndTime, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return s.cellResponse(ctx, updated, nil, nil)
}

// SetStatus applies an explicit lifecycle action (IN_PROGRESS, COMPLETED,
// DRAFT). EMPTY and SCHEDULED are derived from content and cannot be set here.
func (s *MatrixService) SetStatus(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.SetStatusRequest) (*dto.CellResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ExplicitStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be IN_PROGRESS, COMPLETED or DRAFT")
	}

	cell, err := s.loadCellForEdit(ctx, claims, cellID)
	if err != nil {
		return nil, err
	}

	updated, err := s.cells.SetStatus(ctx, cell.ID, req.Status, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set status")
	}
	return s.cellResponse(ctx, updated, nil, nil)
}

// Clone propagates a cell's content to the target coordinates. The caller
// needs FULL access on the source class and on every target class; repeated
// clones are idempotent on content and record each target class in the
// source's share set once.
func (s *MatrixService) Clone(ctx context.Context, claims *models.JWTClaims, sourceCellID string, req dto.CloneRequest) (*dto.CloneResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clone payload")
	}

	source, err := s.loadCellForEdit(ctx, claims, sourceCellID)
	if err != nil {
		return nil, err
	}

	targets := make([]models.Coordinate, 0, len(req.Targets))
	classCodes := make([]string, 0, len(req.Targets))
	for _, t := range req.Targets {
		coord := models.Coordinate{
			ClassCode:    t.ClassCode,
			AcademicYear: source.AcademicYear,
			PeriodType:   t.PeriodType,
			PeriodValue:  t.PeriodValue,
		}
		if err := coord.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidPeriod.Code, appErrors.ErrInvalidPeriod.Status, "invalid clone target")
		}
		targets = append(targets, coord)
		classCodes = append(classCodes, t.ClassCode)
	}

	levels, err := s.access.ResolveEffectiveAccess(ctx, claims, classCodes)
	if err != nil {
		return nil, err
	}
	for _, code := range classCodes {
		if !levels[code].CanEdit() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "full access required on class "+code)
		}
	}

	cloned := make([]string, 0, len(targets))
	for _, target := range targets {
		targetID, err := s.cells.CloneInto(ctx, source.ID, target, claims.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clone cell")
		}
		cloned = append(cloned, targetID)
	}

	return &dto.CloneResponse{SourceCellID: source.ID, ClonedCellIDs: cloned}, nil
}

func (s *MatrixService) loadCellForEdit(ctx context.Context, claims *models.JWTClaims, cellID string) (*models.MatrixCell, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cell, err := s.cells.FindByID(ctx, cellID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cell not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cell")
	}
	if _, err := s.requireAccess(ctx, claims, cell.ClassCode, true); err != nil {
		return nil, err
	}
	return cell, nil
}

func (s *MatrixService) requireAccess(ctx context.Context, claims *models.JWTClaims, classCode string, edit bool) (models.AccessLevel, error) {
	levels, err := s.access.ResolveEffectiveAccess(ctx, claims, []string{classCode})
	if err != nil {
		return models.AccessNone, err
	}
	level := levels[classCode]
	if edit && !level.CanEdit() {
		return level, appErrors.Clone(appErrors.ErrForbidden, "full access required on class "+classCode)
	}
	if !edit && !level.CanView() {
		return level, appErrors.Clone(appErrors.ErrForbidden, "no access to class "+classCode)
	}
	return level, nil
}

func (s *MatrixService) cellResponse(ctx context.Context, cell *models.MatrixCell, attached, detached *bool) (*dto.CellResponse, error) {
	detail, err := s.cells.FindDetailByID(ctx, cell.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload cell")
	}
	return &dto.CellResponse{
		Cell:     detail.MatrixCell,
		ItemIDs:  detail.ItemIDs,
		Attached: attached,
		Detached: detached,
	}, nil
}
