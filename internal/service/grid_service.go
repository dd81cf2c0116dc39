package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
	"github.com/noah-isme/class-matrix-api/pkg/export"
)

type gridCellRepo interface {
	BulkEnsure(ctx context.Context, coords []models.Coordinate, createdBy string, batchSize int) (int, error)
	ListDetailsByClasses(ctx context.Context, classCodes []string, academicYear string) ([]models.MatrixCellDetail, error)
	FindByID(ctx context.Context, id string) (*models.MatrixCell, error)
	AttachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error)
}

type gridAccessResolver interface {
	AccessibleClasses(ctx context.Context, claims *models.JWTClaims, academicYear string) ([]string, map[string]models.AccessLevel, error)
	ResolveEffectiveAccess(ctx context.Context, claims *models.JWTClaims, classCodes []string) (map[string]models.AccessLevel, error)
}

type curriculumResolver interface {
	Resolve(ctx context.Context, classCode, academicYear string) (*models.CurriculumResolution, error)
}

// GridServiceConfig tunes grid assembly.
type GridServiceConfig struct {
	BackfillBatchSize int
}

// GridService answers whole-grid requests and bulk mutations by composing the
// access resolver, the cell store and the curriculum resolver. Grid reads are
// two-phase: one batched backfill, then a single keyed bulk read, never a
// per-cell round trip.
type GridService struct {
	cells      gridCellRepo
	access     gridAccessResolver
	curriculum curriculumResolver
	items      itemCatalog
	metrics    *MetricsService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        GridServiceConfig
}

// GridServiceParams groups constructor dependencies.
type GridServiceParams struct {
	Cells      gridCellRepo
	Access     gridAccessResolver
	Curriculum curriculumResolver
	Items      itemCatalog
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     GridServiceConfig
}

// NewGridService constructs a GridService with sane defaults.
func NewGridService(params GridServiceParams) *GridService {
	cfg := params.Config
	if cfg.BackfillBatchSize <= 0 {
		cfg.BackfillBatchSize = 256
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridService{
		cells:      params.Cells,
		access:     params.Access,
		curriculum: params.Curriculum,
		items:      params.Items,
		metrics:    params.Metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

func gridPeriods() []dto.GridPeriod {
	periods := make([]dto.GridPeriod, 0, 16)
	for _, v := range models.PeriodValues(models.PeriodMonthly) {
		periods = append(periods, dto.GridPeriod{Type: models.PeriodMonthly, Value: v})
	}
	for _, v := range models.PeriodValues(models.PeriodQuarterly) {
		periods = append(periods, dto.GridPeriod{Type: models.PeriodQuarterly, Value: v})
	}
	return periods
}

func periodKey(pt models.PeriodType, value string) string {
	return fmt.Sprintf("%s_%s", pt, value)
}

// BuildGrid assembles the caller's scheduling grid for the year: classes with
// effective access above NONE become columns, each carrying all 16 period
// cells annotated with status, item count and editability.
func (s *GridService) BuildGrid(ctx context.Context, claims *models.JWTClaims, academicYear string) (*dto.GridResponse, error) {
	if err := validateYear(academicYear); err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	classCodes, levels, err := s.access.AccessibleClasses(ctx, claims, academicYear)
	if err != nil {
		return nil, err
	}

	response := &dto.GridResponse{
		AcademicYear: academicYear,
		Periods:      gridPeriods(),
		Columns:      []dto.GridColumn{},
		GeneratedAt:  time.Now().UTC(),
	}
	if len(classCodes) == 0 {
		return response, nil
	}

	coords := make([]models.Coordinate, 0, len(classCodes)*16)
	for _, code := range classCodes {
		coords = append(coords, models.YearCoordinates(code, academicYear)...)
	}

	created, err := s.cells.BulkEnsure(ctx, coords, claims.UserID, s.cfg.BackfillBatchSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill grid cells")
	}
	if s.metrics != nil {
		s.metrics.RecordBackfill(created)
	}
	response.CellsCreated = created

	readStart := time.Now()
	details, err := s.cells.ListDetailsByClasses(ctx, classCodes, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read grid cells")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grid_bulk_read", time.Since(readStart))
	}

	index := make(map[string]*models.MatrixCellDetail, len(details))
	for i := range details {
		index[details[i].Coordinate().Key()] = &details[i]
	}

	for _, code := range classCodes {
		level := levels[code]
		editable := level.CanEdit()

		resolution, err := s.curriculum.Resolve(ctx, code, academicYear)
		if err != nil {
			return nil, err
		}

		column := dto.GridColumn{
			ClassCode:  code,
			Access:     level,
			Editable:   editable,
			Curriculum: resolution,
			Cells:      make(map[string]dto.GridCell, len(response.Periods)),
		}

		for _, period := range response.Periods {
			coord := models.Coordinate{ClassCode: code, AcademicYear: academicYear, PeriodType: period.Type, PeriodValue: period.Value}
			detail, ok := index[coord.Key()]
			if !ok {
				// Backfill guarantees presence; a missing entry means a
				// concurrent writer raced us, so skip rather than fail.
				s.logger.Warn("grid cell missing after backfill", zap.String("key", coord.Key()))
				continue
			}
			column.Cells[periodKey(period.Type, period.Value)] = dto.GridCell{
				CellID:        detail.ID,
				PeriodType:    period.Type,
				PeriodValue:   period.Value,
				Status:        detail.Status,
				ItemCount:     len(detail.ItemIDs),
				ItemIDs:       detail.ItemIDs,
				SharedWith:    detail.SharedWith,
				ScheduledDate: detail.ScheduledDate,
				StartTime:     detail.StartTime,
				EndTime:       detail.EndTime,
				Editable:      editable,
			}
		}
		response.Columns = append(response.Columns, column)
	}

	return response, nil
}

// BulkAssign attaches every item to every cell the caller may edit. Failures
// are per-(item, cell) pair; processing never aborts mid-batch and the
// response always accounts for len(items) * len(cells) pairs.
func (s *GridService) BulkAssign(ctx context.Context, claims *models.JWTClaims, req dto.BulkAssignRequest) (*dto.BulkAssignResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assign payload")
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	type cellInfo struct {
		cell *models.MatrixCell
		err  *appErrors.Error
	}
	cellInfos := make(map[string]cellInfo, len(req.CellIDs))
	classSet := make(map[string]struct{})
	for _, cellID := range req.CellIDs {
		cell, err := s.cells.FindByID(ctx, cellID)
		if err != nil {
			cellInfos[cellID] = cellInfo{err: appErrors.Clone(appErrors.ErrNotFound, "cell not found")}
			continue
		}
		cellInfos[cellID] = cellInfo{cell: cell}
		classSet[cell.ClassCode] = struct{}{}
	}

	classCodes := make([]string, 0, len(classSet))
	for code := range classSet {
		classCodes = append(classCodes, code)
	}
	levels := map[string]models.AccessLevel{}
	if len(classCodes) > 0 {
		resolved, err := s.access.ResolveEffectiveAccess(ctx, claims, classCodes)
		if err != nil {
			return nil, err
		}
		levels = resolved
	}

	itemKnown := make(map[string]bool, len(req.ItemIDs))
	for _, itemID := range req.ItemIDs {
		exists, err := s.items.ItemExists(ctx, itemID)
		if err != nil {
			s.logger.Warn("item existence check failed", zap.String("item", itemID), zap.Error(err))
			exists = false
		}
		itemKnown[itemID] = exists
	}

	response := &dto.BulkAssignResponse{Errors: []dto.BulkAssignError{}}
	for _, cellID := range req.CellIDs {
		info := cellInfos[cellID]
		for _, itemID := range req.ItemIDs {
			if info.err != nil {
				response.Failed++
				response.Errors = append(response.Errors, dto.BulkAssignError{ItemID: itemID, CellID: cellID, Code: info.err.Code, Message: info.err.Message})
				continue
			}
			if !levels[info.cell.ClassCode].CanEdit() {
				response.Failed++
				response.Errors = append(response.Errors, dto.BulkAssignError{
					ItemID: itemID, CellID: cellID,
					Code: appErrors.ErrForbidden.Code, Message: "full access required on class " + info.cell.ClassCode,
				})
				continue
			}
			if !itemKnown[itemID] {
				response.Failed++
				response.Errors = append(response.Errors, dto.BulkAssignError{
					ItemID: itemID, CellID: cellID,
					Code: appErrors.ErrNotFound.Code, Message: "assessment item not found",
				})
				continue
			}
			if _, _, err := s.cells.AttachItem(ctx, cellID, itemID, claims.UserID); err != nil {
				response.Failed++
				response.Errors = append(response.Errors, dto.BulkAssignError{
					ItemID: itemID, CellID: cellID,
					Code: appErrors.ErrInternal.Code, Message: err.Error(),
				})
				continue
			}
			response.Succeeded++
		}
	}

	return response, nil
}

// ExportGrid renders the caller's grid as CSV or PDF.
func (s *GridService) ExportGrid(ctx context.Context, claims *models.JWTClaims, academicYear, format string) ([]byte, string, string, error) {
	grid, err := s.BuildGrid(ctx, claims, academicYear)
	if err != nil {
		return nil, "", "", err
	}

	headers := make([]string, 0, len(grid.Periods)+2)
	headers = append(headers, "Class", "Curriculum")
	for _, p := range grid.Periods {
		headers = append(headers, periodKey(p.Type, p.Value))
	}

	rows := make([]map[string]string, 0, len(grid.Columns))
	for _, column := range grid.Columns {
		row := map[string]string{"Class": column.ClassCode, "Curriculum": curriculumLabel(column.Curriculum)}
		for _, p := range grid.Periods {
			if cell, ok := column.Cells[periodKey(p.Type, p.Value)]; ok {
				row[periodKey(p.Type, p.Value)] = fmt.Sprintf("%s (%d)", cell.Status, cell.ItemCount)
			}
		}
		rows = append(rows, row)
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	filename := fmt.Sprintf("matrix-grid-%s", academicYear)

	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", filename + ".csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Scheduling grid %s", academicYear))
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", filename + ".pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func curriculumLabel(res *models.CurriculumResolution) string {
	if res == nil || !res.Assigned || res.Primary == nil {
		return "UNASSIGNED"
	}
	return res.Primary.CurriculumLevel
}

func validateYear(year string) error {
	if year == "" {
		return appErrors.Clone(appErrors.ErrValidation, "year is required")
	}
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		return appErrors.Clone(appErrors.ErrValidation, "year must be a four digit value")
	}
	return nil
}
