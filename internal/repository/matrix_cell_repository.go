package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

const matrixCellColumns = `id, class_code, academic_year, period_type, period_value, status,
	scheduled_date, start_time, end_time, notes, created_by, modified_by, created_at, updated_at`

// MatrixCellRepository owns the scheduling grid rows and their attached item
// and share sets.
type MatrixCellRepository struct {
	db *sqlx.DB
}

// NewMatrixCellRepository constructs the repository.
func NewMatrixCellRepository(db *sqlx.DB) *MatrixCellRepository {
	return &MatrixCellRepository{db: db}
}

// GetOrCreate returns the cell at the coordinate, creating it when missing.
// Concurrent creators converge on one row: the insert ignores conflicts on the
// natural key and the loser re-reads the winner's row.
func (r *MatrixCellRepository) GetOrCreate(ctx context.Context, coord models.Coordinate, createdBy string) (*models.MatrixCell, bool, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	const insertQuery = `
INSERT INTO matrix_cells (id, class_code, academic_year, period_type, period_value, status, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, $8)
ON CONFLICT (class_code, academic_year, period_type, period_value) DO NOTHING
RETURNING id`

	var insertedID string
	err := r.db.QueryRowxContext(ctx, insertQuery,
		id, coord.ClassCode, coord.AcademicYear, coord.PeriodType, coord.PeriodValue,
		models.CellStatusEmpty, nullableString(createdBy), now,
	).Scan(&insertedID)

	created := true
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, false, fmt.Errorf("insert matrix cell: %w", err)
		}
		created = false
	}

	cell, err := r.FindByCoordinate(ctx, coord)
	if err != nil {
		return nil, false, err
	}
	return cell, created, nil
}

// FindByID loads a cell by its identifier.
func (r *MatrixCellRepository) FindByID(ctx context.Context, id string) (*models.MatrixCell, error) {
	query := fmt.Sprintf(`SELECT %s FROM matrix_cells WHERE id = $1`, matrixCellColumns)
	var cell models.MatrixCell
	if err := r.db.GetContext(ctx, &cell, query, id); err != nil {
		return nil, err
	}
	return &cell, nil
}

// FindByCoordinate loads a cell by its natural key.
func (r *MatrixCellRepository) FindByCoordinate(ctx context.Context, coord models.Coordinate) (*models.MatrixCell, error) {
	query := fmt.Sprintf(`SELECT %s FROM matrix_cells
WHERE class_code = $1 AND academic_year = $2 AND period_type = $3 AND period_value = $4`, matrixCellColumns)
	var cell models.MatrixCell
	if err := r.db.GetContext(ctx, &cell, query, coord.ClassCode, coord.AcademicYear, coord.PeriodType, coord.PeriodValue); err != nil {
		return nil, fmt.Errorf("find matrix cell %s: %w", coord.Key(), err)
	}
	return &cell, nil
}

// BulkEnsure creates every missing cell for the coordinate set using bounded
// multi-row inserts. One statement covers batchSize coordinates, so a full
// year grid for dozens of classes stays a handful of round trips.
func (r *MatrixCellRepository) BulkEnsure(ctx context.Context, coords []models.Coordinate, createdBy string, batchSize int) (int, error) {
	if len(coords) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 256
	}

	now := time.Now().UTC()
	createdTotal := 0

	for start := 0; start < len(coords); start += batchSize {
		end := start + batchSize
		if end > len(coords) {
			end = len(coords)
		}
		chunk := coords[start:end]

		valueClauses := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*6+2)
		args = append(args, nullableString(createdBy), now)
		for _, coord := range chunk {
			base := len(args)
			valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, '', $1, $2, $2)",
				base+1, base+2, base+3, base+4, base+5, base+6))
			args = append(args, uuid.NewString(), coord.ClassCode, coord.AcademicYear, coord.PeriodType, coord.PeriodValue, models.CellStatusEmpty)
		}

		query := fmt.Sprintf(`
INSERT INTO matrix_cells (id, class_code, academic_year, period_type, period_value, status, notes, created_by, created_at, updated_at)
VALUES %s
ON CONFLICT (class_code, academic_year, period_type, period_value) DO NOTHING`,
			strings.Join(valueClauses, ", "))

		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return createdTotal, fmt.Errorf("bulk ensure matrix cells: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return createdTotal, fmt.Errorf("bulk ensure rows affected: %w", err)
		}
		createdTotal += int(affected)
	}

	return createdTotal, nil
}

// ListDetailsByClasses returns every cell (with item and share sets) for the
// classes in one read, ready to be indexed by coordinate key.
func (r *MatrixCellRepository) ListDetailsByClasses(ctx context.Context, classCodes []string, academicYear string) ([]models.MatrixCellDetail, error) {
	if len(classCodes) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
SELECT %s,
	COALESCE(ARRAY(SELECT i.item_id FROM matrix_cell_items i WHERE i.cell_id = matrix_cells.id ORDER BY i.position), '{}') AS item_ids,
	COALESCE(ARRAY(SELECT sh.class_code FROM matrix_cell_shares sh WHERE sh.cell_id = matrix_cells.id ORDER BY sh.created_at), '{}') AS shared_with
FROM matrix_cells
WHERE academic_year = $1 AND class_code = ANY($2)
ORDER BY class_code, period_type, period_value`, matrixCellColumns)

	var details []models.MatrixCellDetail
	if err := r.db.SelectContext(ctx, &details, query, academicYear, pq.Array(classCodes)); err != nil {
		return nil, fmt.Errorf("list matrix cell details: %w", err)
	}
	return details, nil
}

// FindDetailByID loads a cell together with its item and share sets.
func (r *MatrixCellRepository) FindDetailByID(ctx context.Context, id string) (*models.MatrixCellDetail, error) {
	query := fmt.Sprintf(`
SELECT %s,
	COALESCE(ARRAY(SELECT i.item_id FROM matrix_cell_items i WHERE i.cell_id = matrix_cells.id ORDER BY i.position), '{}') AS item_ids,
	COALESCE(ARRAY(SELECT sh.class_code FROM matrix_cell_shares sh WHERE sh.cell_id = matrix_cells.id ORDER BY sh.created_at), '{}') AS shared_with
FROM matrix_cells
WHERE id = $1`, matrixCellColumns)
	var detail models.MatrixCellDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DistinctClassCodes lists every class that has cells for the year.
func (r *MatrixCellRepository) DistinctClassCodes(ctx context.Context, academicYear string) ([]string, error) {
	const query = `SELECT DISTINCT class_code FROM matrix_cells WHERE academic_year = $1 ORDER BY class_code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, academicYear); err != nil {
		return nil, fmt.Errorf("list matrix class codes: %w", err)
	}
	return codes, nil
}

// AttachItem adds the item to the cell's set. The cell row is locked for the
// duration so concurrent attach/detach calls never lose updates; the status
// is recomputed from the post-change item count (EMPTY and SCHEDULED only).
func (r *MatrixCellRepository) AttachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin attach item: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cell, err := lockCell(ctx, tx, cellID)
	if err != nil {
		return nil, false, err
	}

	const insertQuery = `
INSERT INTO matrix_cell_items (cell_id, item_id, position, created_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM matrix_cell_items WHERE cell_id = $1), $3)
ON CONFLICT (cell_id, item_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, insertQuery, cellID, itemID, time.Now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("attach item %s to cell %s: %w", itemID, cellID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("attach item rows affected: %w", err)
	}
	attached := affected > 0

	if err := recomputeCellStatus(ctx, tx, cell, actor); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit attach item: %w", err)
	}
	committed = true
	return cell, attached, nil
}

// DetachItem removes the item from the cell's set; removing the last item
// flips an auto-derived status back to EMPTY.
func (r *MatrixCellRepository) DetachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin detach item: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cell, err := lockCell(ctx, tx, cellID)
	if err != nil {
		return nil, false, err
	}

	const deleteQuery = `DELETE FROM matrix_cell_items WHERE cell_id = $1 AND item_id = $2`
	result, err := tx.ExecContext(ctx, deleteQuery, cellID, itemID)
	if err != nil {
		return nil, false, fmt.Errorf("detach item %s from cell %s: %w", itemID, cellID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("detach item rows affected: %w", err)
	}
	detached := affected > 0

	if err := recomputeCellStatus(ctx, tx, cell, actor); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit detach item: %w", err)
	}
	committed = true
	return cell, detached, nil
}

// UpdateSchedule applies a partial schedule update; nil fields keep their
// stored values.
func (r *MatrixCellRepository) UpdateSchedule(ctx context.Context, cellID string, date *time.Time, startTime, endTime *string, actor string) (*models.MatrixCell, error) {
	query := fmt.Sprintf(`
UPDATE matrix_cells
SET scheduled_date = COALESCE($2, scheduled_date),
	start_time = COALESCE($3, start_time),
	end_time = COALESCE($4, end_time),
	modified_by = $5,
	updated_at = $6
WHERE id = $1
RETURNING %s`, matrixCellColumns)

	var cell models.MatrixCell
	err := r.db.GetContext(ctx, &cell, query, cellID, date, startTime, endTime, nullableString(actor), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &cell, nil
}

// SetStatus applies an explicit lifecycle action. Auto-derived statuses are
// not settable here; attach/detach owns those.
func (r *MatrixCellRepository) SetStatus(ctx context.Context, cellID string, status models.CellStatus, actor string) (*models.MatrixCell, error) {
	query := fmt.Sprintf(`
UPDATE matrix_cells SET status = $2, modified_by = $3, updated_at = $4 WHERE id = $1
RETURNING %s`, matrixCellColumns)
	var cell models.MatrixCell
	if err := r.db.GetContext(ctx, &cell, query, cellID, status, nullableString(actor), time.Now().UTC()); err != nil {
		return nil, err
	}
	return &cell, nil
}

// CloneInto propagates the source cell's item set and schedule fields onto the
// target coordinate. Existing target items are kept (union semantics) and the
// target's class is recorded in the source's share set at most once.
func (r *MatrixCellRepository) CloneInto(ctx context.Context, sourceID string, target models.Coordinate, actor string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin clone cell: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	source, err := lockCell(ctx, tx, sourceID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	targetID := uuid.NewString()
	const ensureQuery = `
INSERT INTO matrix_cells (id, class_code, academic_year, period_type, period_value, status, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, $8)
ON CONFLICT (class_code, academic_year, period_type, period_value) DO NOTHING
RETURNING id`
	var insertedID string
	err = tx.QueryRowxContext(ctx, ensureQuery,
		targetID, target.ClassCode, target.AcademicYear, target.PeriodType, target.PeriodValue,
		models.CellStatusEmpty, nullableString(actor), now,
	).Scan(&insertedID)
	if err == sql.ErrNoRows {
		const findQuery = `SELECT id FROM matrix_cells
WHERE class_code = $1 AND academic_year = $2 AND period_type = $3 AND period_value = $4 FOR UPDATE`
		if err := tx.GetContext(ctx, &targetID, findQuery, target.ClassCode, target.AcademicYear, target.PeriodType, target.PeriodValue); err != nil {
			return "", fmt.Errorf("find clone target %s: %w", target.Key(), err)
		}
	} else if err != nil {
		return "", fmt.Errorf("ensure clone target %s: %w", target.Key(), err)
	} else {
		targetID = insertedID
	}

	const copyItemsQuery = `
INSERT INTO matrix_cell_items (cell_id, item_id, position, created_at)
SELECT $1, item_id, position, $3 FROM matrix_cell_items WHERE cell_id = $2
ON CONFLICT (cell_id, item_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, copyItemsQuery, targetID, sourceID, now); err != nil {
		return "", fmt.Errorf("copy items to clone target: %w", err)
	}

	const copyScheduleQuery = `
UPDATE matrix_cells
SET scheduled_date = $2, start_time = $3, end_time = $4, modified_by = $5, updated_at = $6
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, copyScheduleQuery, targetID, source.ScheduledDate, source.StartTime, source.EndTime, nullableString(actor), now); err != nil {
		return "", fmt.Errorf("copy schedule to clone target: %w", err)
	}

	targetCell := &models.MatrixCell{ID: targetID}
	if err := recomputeCellStatus(ctx, tx, targetCell, actor); err != nil {
		return "", err
	}

	const shareQuery = `
INSERT INTO matrix_cell_shares (cell_id, class_code, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (cell_id, class_code) DO NOTHING`
	if _, err := tx.ExecContext(ctx, shareQuery, sourceID, target.ClassCode, now); err != nil {
		return "", fmt.Errorf("record clone share: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit clone cell: %w", err)
	}
	committed = true
	return targetID, nil
}

// lockCell loads the cell under FOR UPDATE inside the transaction.
func lockCell(ctx context.Context, tx *sqlx.Tx, cellID string) (*models.MatrixCell, error) {
	query := fmt.Sprintf(`SELECT %s FROM matrix_cells WHERE id = $1 FOR UPDATE`, matrixCellColumns)
	var cell models.MatrixCell
	if err := tx.GetContext(ctx, &cell, query, cellID); err != nil {
		return nil, err
	}
	return &cell, nil
}

// recomputeCellStatus flips EMPTY<->SCHEDULED from the current item count.
// Explicit statuses (IN_PROGRESS, COMPLETED, DRAFT) are left alone. The
// passed cell is refreshed with the stored row.
func recomputeCellStatus(ctx context.Context, tx *sqlx.Tx, cell *models.MatrixCell, actor string) error {
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM matrix_cell_items WHERE cell_id = $1`, cell.ID); err != nil {
		return fmt.Errorf("count cell items: %w", err)
	}

	query := fmt.Sprintf(`
UPDATE matrix_cells
SET status = CASE
		WHEN status IN ('EMPTY', 'SCHEDULED') AND $2 > 0 THEN 'SCHEDULED'
		WHEN status IN ('EMPTY', 'SCHEDULED') AND $2 = 0 THEN 'EMPTY'
		ELSE status
	END,
	modified_by = $3,
	updated_at = $4
WHERE id = $1
RETURNING %s`, matrixCellColumns)
	if err := tx.GetContext(ctx, cell, query, cell.ID, count, nullableString(actor), time.Now().UTC()); err != nil {
		return fmt.Errorf("recompute cell status: %w", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
