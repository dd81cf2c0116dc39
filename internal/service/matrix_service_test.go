package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type cellRepoStub struct {
	cells       map[string]*models.MatrixCell
	details     map[string]*models.MatrixCellDetail
	attachCount int
	detachHits  map[string]bool
	cloneIDs    []string
	statusSet   models.CellStatus
}

func (s *cellRepoStub) GetOrCreate(ctx context.Context, coord models.Coordinate, createdBy string) (*models.MatrixCell, bool, error) {
	return nil, false, nil
}

func (s *cellRepoStub) FindByID(ctx context.Context, id string) (*models.MatrixCell, error) {
	cell, ok := s.cells[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cell, nil
}

func (s *cellRepoStub) FindDetailByID(ctx context.Context, id string) (*models.MatrixCellDetail, error) {
	detail, ok := s.details[id]
	if !ok {
		cell, ok := s.cells[id]
		if !ok {
			return nil, sql.ErrNoRows
		}
		return &models.MatrixCellDetail{MatrixCell: *cell}, nil
	}
	return detail, nil
}

func (s *cellRepoStub) AttachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error) {
	s.attachCount++
	cell := s.cells[cellID]
	cell.Status = models.CellStatusScheduled
	return cell, true, nil
}

func (s *cellRepoStub) DetachItem(ctx context.Context, cellID, itemID, actor string) (*models.MatrixCell, bool, error) {
	return s.cells[cellID], s.detachHits[itemID], nil
}

func (s *cellRepoStub) UpdateSchedule(ctx context.Context, cellID string, date *time.Time, startTime, endTime *string, actor string) (*models.MatrixCell, error) {
	cell := s.cells[cellID]
	cell.ScheduledDate = date
	cell.StartTime = startTime
	cell.EndTime = endTime
	return cell, nil
}

func (s *cellRepoStub) SetStatus(ctx context.Context, cellID string, status models.CellStatus, actor string) (*models.MatrixCell, error) {
	s.statusSet = status
	cell := s.cells[cellID]
	cell.Status = status
	return cell, nil
}

func (s *cellRepoStub) CloneInto(ctx context.Context, sourceID string, target models.Coordinate, actor string) (string, error) {
	id := "clone-" + target.ClassCode + "-" + target.PeriodValue
	s.cloneIDs = append(s.cloneIDs, id)
	return id, nil
}

type itemsStub struct {
	known map[string]bool
}

func (s *itemsStub) ItemExists(ctx context.Context, itemID string) (bool, error) {
	return s.known[itemID], nil
}

type accessStub struct {
	levels map[string]models.AccessLevel
}

func (s *accessStub) ResolveEffectiveAccess(ctx context.Context, claims *models.JWTClaims, classCodes []string) (map[string]models.AccessLevel, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	result := make(map[string]models.AccessLevel, len(classCodes))
	for _, code := range classCodes {
		result[code] = s.levels[code]
	}
	return result, nil
}

func newCellRepoStub() *cellRepoStub {
	return &cellRepoStub{
		cells: map[string]*models.MatrixCell{
			"cell-1": {ID: "cell-1", ClassCode: "X-IPA-1", AcademicYear: "2025", PeriodType: models.PeriodMonthly, PeriodValue: "JAN", Status: models.CellStatusEmpty},
		},
		details:    map[string]*models.MatrixCellDetail{},
		detachHits: map[string]bool{},
	}
}

func TestMatrixAttachItem(t *testing.T) {
	cells := newCellRepoStub()
	svc := NewMatrixService(cells, &itemsStub{known: map[string]bool{"item-1": true}}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	resp, err := svc.AttachItem(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.AttachItemRequest{ItemID: "item-1"})
	require.NoError(t, err)
	require.NotNil(t, resp.Attached)
	assert.True(t, *resp.Attached)
	assert.Equal(t, models.CellStatusScheduled, resp.Cell.Status)
	assert.Equal(t, 1, cells.attachCount)
}

func TestMatrixAttachItemForbiddenWithViewAccess(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{known: map[string]bool{"item-1": true}}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessView}}, nil, nil)

	_, err := svc.AttachItem(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.AttachItemRequest{ItemID: "item-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMatrixAttachItemForbiddenWithCoTeacherAccess(t *testing.T) {
	// CO_TEACHER is a visibility tier, not an edit grant.
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{known: map[string]bool{"item-1": true}}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessCoTeacher}}, nil, nil)

	_, err := svc.AttachItem(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.AttachItemRequest{ItemID: "item-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMatrixAttachUnknownItem(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{known: map[string]bool{}}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	_, err := svc.AttachItem(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.AttachItemRequest{ItemID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatrixDetachAbsentItemIsNoOp(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	resp, err := svc.DetachItem(context.Background(), teacherClaims("teacher-1"), "cell-1", "never-attached")
	require.NoError(t, err)
	require.NotNil(t, resp.Detached)
	assert.False(t, *resp.Detached)
}

func TestMatrixUpdateScheduleParsesDate(t *testing.T) {
	cells := newCellRepoStub()
	svc := NewMatrixService(cells, &itemsStub{}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	date := "2025-03-14"
	start := "08:00"
	resp, err := svc.UpdateSchedule(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.UpdateScheduleRequest{Date: &date, StartTime: &start})
	require.NoError(t, err)
	require.NotNil(t, resp.Cell.ScheduledDate)
	assert.Equal(t, 14, resp.Cell.ScheduledDate.Day())
	require.NotNil(t, resp.Cell.StartTime)
	assert.Equal(t, "08:00", *resp.Cell.StartTime)
}

func TestMatrixSetStatusRejectsDerivedStatus(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	_, err := svc.SetStatus(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.SetStatusRequest{Status: models.CellStatusEmpty})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMatrixSetStatusExplicit(t *testing.T) {
	cells := newCellRepoStub()
	svc := NewMatrixService(cells, &itemsStub{}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessFull}}, nil, nil)

	resp, err := svc.SetStatus(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.SetStatusRequest{Status: models.CellStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.CellStatusCompleted, resp.Cell.Status)
	assert.Equal(t, models.CellStatusCompleted, cells.statusSet)
}

func TestMatrixCloneRequiresFullAccessOnTargets(t *testing.T) {
	access := &accessStub{levels: map[string]models.AccessLevel{
		"X-IPA-1": models.AccessFull,
		"X-IPA-2": models.AccessView,
	}}
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, access, nil, nil)

	_, err := svc.Clone(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.CloneRequest{
		Targets: []dto.CloneTarget{{ClassCode: "X-IPA-2", PeriodType: models.PeriodMonthly, PeriodValue: "JAN"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMatrixCloneRejectsInvalidPeriod(t *testing.T) {
	access := &accessStub{levels: map[string]models.AccessLevel{
		"X-IPA-1": models.AccessFull,
		"X-IPA-2": models.AccessFull,
	}}
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, access, nil, nil)

	_, err := svc.Clone(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.CloneRequest{
		Targets: []dto.CloneTarget{{ClassCode: "X-IPA-2", PeriodType: models.PeriodMonthly, PeriodValue: "Q1"}},
	})
	require.Error(t, err)
}

func TestMatrixCloneFansOut(t *testing.T) {
	cells := newCellRepoStub()
	access := &accessStub{levels: map[string]models.AccessLevel{
		"X-IPA-1": models.AccessFull,
		"X-IPA-2": models.AccessFull,
	}}
	svc := NewMatrixService(cells, &itemsStub{}, access, nil, nil)

	resp, err := svc.Clone(context.Background(), teacherClaims("teacher-1"), "cell-1", dto.CloneRequest{
		Targets: []dto.CloneTarget{
			{ClassCode: "X-IPA-2", PeriodType: models.PeriodMonthly, PeriodValue: "JAN"},
			{ClassCode: "X-IPA-2", PeriodType: models.PeriodQuarterly, PeriodValue: "Q1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cell-1", resp.SourceCellID)
	assert.Len(t, resp.ClonedCellIDs, 2)
	assert.Len(t, cells.cloneIDs, 2)
}

func TestMatrixGetCellRequiresViewAccess(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, &accessStub{levels: map[string]models.AccessLevel{"X-IPA-1": models.AccessNone}}, nil, nil)

	_, err := svc.GetCell(context.Background(), teacherClaims("teacher-1"), "cell-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMatrixGetCellMissing(t *testing.T) {
	svc := NewMatrixService(newCellRepoStub(), &itemsStub{}, &accessStub{}, nil, nil)

	_, err := svc.GetCell(context.Background(), teacherClaims("teacher-1"), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
