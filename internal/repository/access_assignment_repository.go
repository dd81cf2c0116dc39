package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

const accessAssignmentColumns = `id, teacher_id, class_code, access_level, active, starts_at, ends_at, created_at, updated_at`

// AccessAssignmentRepository persists explicit teacher-class access rows.
// Revocation deactivates instead of deleting so history is preserved.
type AccessAssignmentRepository struct {
	db *sqlx.DB
}

// NewAccessAssignmentRepository constructs the repository.
func NewAccessAssignmentRepository(db *sqlx.DB) *AccessAssignmentRepository {
	return &AccessAssignmentRepository{db: db}
}

// ListActiveByTeacher returns the teacher's active rows, optionally limited to
// a class set.
func (r *AccessAssignmentRepository) ListActiveByTeacher(ctx context.Context, teacherID string, classCodes []string) ([]models.ClassAccessAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_access_assignments WHERE teacher_id = $1 AND active = TRUE`, accessAssignmentColumns)
	args := []interface{}{teacherID}
	if len(classCodes) > 0 {
		query += ` AND class_code = ANY($2)`
		args = append(args, pq.Array(classCodes))
	}
	query += ` ORDER BY class_code`

	var assignments []models.ClassAccessAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list active access assignments: %w", err)
	}
	return assignments, nil
}

// List returns assignments matching the filter, newest first, including
// deactivated history rows.
func (r *AccessAssignmentRepository) List(ctx context.Context, teacherID, classCode string) ([]models.ClassAccessAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_access_assignments WHERE 1=1`, accessAssignmentColumns)
	args := []interface{}{}
	if teacherID != "" {
		args = append(args, teacherID)
		query += fmt.Sprintf(` AND teacher_id = $%d`, len(args))
	}
	if classCode != "" {
		args = append(args, classCode)
		query += fmt.Sprintf(` AND class_code = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	var assignments []models.ClassAccessAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list access assignments: %w", err)
	}
	return assignments, nil
}

// Upsert replaces the active row for the (teacher, class) pair: the previous
// active row (if any) is closed out, then the new level is inserted.
func (r *AccessAssignmentRepository) Upsert(ctx context.Context, assignment *models.ClassAccessAssignment) error {
	if assignment.TeacherID == "" || assignment.ClassCode == "" {
		return fmt.Errorf("teacher_id and class_code are required")
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.StartsAt.IsZero() {
		assignment.StartsAt = now
	}
	assignment.Active = true
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin access upsert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const deactivateQuery = `
UPDATE class_access_assignments
SET active = FALSE, ends_at = $3, updated_at = $3
WHERE teacher_id = $1 AND class_code = $2 AND active = TRUE`
	if _, err := tx.ExecContext(ctx, deactivateQuery, assignment.TeacherID, assignment.ClassCode, now); err != nil {
		return fmt.Errorf("deactivate previous access row: %w", err)
	}

	const insertQuery = `
INSERT INTO class_access_assignments (id, teacher_id, class_code, access_level, active, starts_at, created_at, updated_at)
VALUES (:id, :teacher_id, :class_code, :access_level, :active, :starts_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertQuery, assignment); err != nil {
		return fmt.Errorf("insert access assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit access upsert: %w", err)
	}
	committed = true
	return nil
}

// Deactivate closes out an assignment row by ID.
func (r *AccessAssignmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
UPDATE class_access_assignments
SET active = FALSE, ends_at = $2, updated_at = $2
WHERE id = $1 AND active = TRUE`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate access assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ActiveClassCodes lists the classes where the teacher holds any active row.
func (r *AccessAssignmentRepository) ActiveClassCodes(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT DISTINCT class_code FROM class_access_assignments WHERE teacher_id = $1 AND active = TRUE ORDER BY class_code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list active class codes: %w", err)
	}
	return codes, nil
}
