package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OwnershipRepository derives class ownership from authored assessment items:
// a teacher owns access to every class their items are visible to.
type OwnershipRepository struct {
	db *sqlx.DB
}

// NewOwnershipRepository constructs the repository.
func NewOwnershipRepository(db *sqlx.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// OwnedClassCodes returns the distinct classes for which the teacher authored
// at least one visible assessment item. A non-empty classCodes filter limits
// the scan to the requested set.
func (r *OwnershipRepository) OwnedClassCodes(ctx context.Context, teacherID string, classCodes []string) ([]string, error) {
	query := `
SELECT DISTINCT v.class_code
FROM assessment_items ai
JOIN assessment_item_visibility v ON v.item_id = ai.id
WHERE ai.created_by = $1`
	args := []interface{}{teacherID}
	if len(classCodes) > 0 {
		query += ` AND v.class_code = ANY($2)`
		args = append(args, pq.Array(classCodes))
	}
	query += ` ORDER BY v.class_code`

	var owned []string
	if err := r.db.SelectContext(ctx, &owned, query, args...); err != nil {
		return nil, fmt.Errorf("list owned class codes: %w", err)
	}
	return owned, nil
}

// ItemExists reports whether the assessment item is known.
func (r *OwnershipRepository) ItemExists(ctx context.Context, itemID string) (bool, error) {
	const query = `SELECT 1 FROM assessment_items WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, itemID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assessment item: %w", err)
	}
	return true, nil
}
