package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

const curriculumColumns = `id, class_code, academic_year, priority, curriculum_level, active, created_at, updated_at`

// CurriculumRepository persists prioritized class-to-curriculum mappings.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListActive returns the active mappings for the class/year ordered by
// ascending priority (1 = primary).
func (r *CurriculumRepository) ListActive(ctx context.Context, classCode, academicYear string) ([]models.CurriculumMapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM curriculum_mappings
WHERE class_code = $1 AND academic_year = $2 AND active = TRUE
ORDER BY priority ASC`, curriculumColumns)
	var mappings []models.CurriculumMapping
	if err := r.db.SelectContext(ctx, &mappings, query, classCode, academicYear); err != nil {
		return nil, fmt.Errorf("list curriculum mappings: %w", err)
	}
	return mappings, nil
}

// Upsert creates or replaces the mapping row for (class, year, priority).
func (r *CurriculumRepository) Upsert(ctx context.Context, mapping *models.CurriculumMapping) error {
	if mapping.ClassCode == "" || mapping.AcademicYear == "" {
		return fmt.Errorf("class_code and academic_year are required")
	}
	if mapping.Priority < 1 {
		return fmt.Errorf("priority must be a positive integer")
	}
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	query := fmt.Sprintf(`
INSERT INTO curriculum_mappings (id, class_code, academic_year, priority, curriculum_level, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (class_code, academic_year, priority)
DO UPDATE SET curriculum_level = EXCLUDED.curriculum_level, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
RETURNING %s`, curriculumColumns)

	var stored models.CurriculumMapping
	if err := r.db.GetContext(ctx, &stored, query,
		mapping.ID, mapping.ClassCode, mapping.AcademicYear, mapping.Priority,
		mapping.CurriculumLevel, mapping.Active, mapping.CreatedAt, mapping.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert curriculum mapping: %w", err)
	}
	*mapping = stored
	return nil
}
