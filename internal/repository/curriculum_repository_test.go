package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/models"
)

func newCurriculumMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var curriculumTestColumns = []string{
	"id", "class_code", "academic_year", "priority", "curriculum_level", "active", "created_at", "updated_at",
}

func TestCurriculumRepositoryListActiveOrdersByPriority(t *testing.T) {
	db, mock, cleanup := newCurriculumMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(curriculumTestColumns).
		AddRow("m-1", "X-IPA-1", "2025", 1, "MERDEKA", true, now, now).
		AddRow("m-2", "X-IPA-1", "2025", 2, "K13", true, now, now)
	mock.ExpectQuery("SELECT (.+) FROM curriculum_mappings").
		WithArgs("X-IPA-1", "2025").
		WillReturnRows(rows)

	mappings, err := repo.ListActive(context.Background(), "X-IPA-1", "2025")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, 1, mappings[0].Priority)
	assert.Equal(t, "MERDEKA", mappings[0].CurriculumLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurriculumRepositoryUpsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newCurriculumMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO curriculum_mappings").
		WithArgs(sqlmock.AnyArg(), "X-IPA-1", "2025", 1, "MERDEKA", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(curriculumTestColumns).
			AddRow("m-1", "X-IPA-1", "2025", 1, "MERDEKA", true, now, now))

	mapping := &models.CurriculumMapping{
		ClassCode:       "X-IPA-1",
		AcademicYear:    "2025",
		Priority:        1,
		CurriculumLevel: "MERDEKA",
		Active:          true,
	}
	err := repo.Upsert(context.Background(), mapping)
	require.NoError(t, err)
	assert.Equal(t, "m-1", mapping.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurriculumRepositoryUpsertRejectsBadPriority(t *testing.T) {
	db, _, cleanup := newCurriculumMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	err := repo.Upsert(context.Background(), &models.CurriculumMapping{
		ClassCode:    "X-IPA-1",
		AcademicYear: "2025",
		Priority:     0,
	})
	require.Error(t, err)
}
