package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type assignmentRepoStub struct {
	active        []models.ClassAccessAssignment
	history       []models.ClassAccessAssignment
	activeCodes   []string
	upserted      *models.ClassAccessAssignment
	deactivateErr error
}

func (s *assignmentRepoStub) ListActiveByTeacher(ctx context.Context, teacherID string, classCodes []string) ([]models.ClassAccessAssignment, error) {
	return s.active, nil
}

func (s *assignmentRepoStub) List(ctx context.Context, teacherID, classCode string) ([]models.ClassAccessAssignment, error) {
	return s.history, nil
}

func (s *assignmentRepoStub) Upsert(ctx context.Context, assignment *models.ClassAccessAssignment) error {
	s.upserted = assignment
	return nil
}

func (s *assignmentRepoStub) Deactivate(ctx context.Context, id string) error {
	return s.deactivateErr
}

func (s *assignmentRepoStub) ActiveClassCodes(ctx context.Context, teacherID string) ([]string, error) {
	return s.activeCodes, nil
}

type ownershipStub struct {
	owned []string
}

func (s *ownershipStub) OwnedClassCodes(ctx context.Context, teacherID string, classCodes []string) ([]string, error) {
	return s.owned, nil
}

type catalogStub struct {
	codes []string
}

func (s *catalogStub) DistinctClassCodes(ctx context.Context, academicYear string) ([]string, error) {
	return s.codes, nil
}

func teacherClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleTeacher}
}

func TestResolveEffectiveAccessAdminBypass(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{}, &catalogStub{}, nil, nil)

	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	levels, err := svc.ResolveEffectiveAccess(context.Background(), claims, []string{"X-IPA-1", "X-IPA-2"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessFull, levels["X-IPA-1"])
	assert.Equal(t, models.AccessFull, levels["X-IPA-2"])
}

func TestResolveEffectiveAccessHeadTeacherBypass(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{}, &catalogStub{}, nil, nil)

	claims := &models.JWTClaims{UserID: "head-1", Role: models.RoleHeadTeacher}
	levels, err := svc.ResolveEffectiveAccess(context.Background(), claims, []string{"X-IPA-1"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessFull, levels["X-IPA-1"])
}

func TestResolveEffectiveAccessLayersAssignmentsAndOwnership(t *testing.T) {
	assignments := &assignmentRepoStub{
		active: []models.ClassAccessAssignment{
			{TeacherID: "teacher-1", ClassCode: "X-IPA-1", AccessLevel: models.AccessView, Active: true},
		},
	}
	ownership := &ownershipStub{owned: []string{"X-IPA-2"}}
	svc := NewAccessService(assignments, ownership, &catalogStub{}, nil, nil)

	levels, err := svc.ResolveEffectiveAccess(context.Background(), teacherClaims("teacher-1"), []string{"X-IPA-1", "X-IPA-2", "X-IPA-3"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessView, levels["X-IPA-1"])
	assert.Equal(t, models.AccessFull, levels["X-IPA-2"])
	assert.Equal(t, models.AccessNone, levels["X-IPA-3"])
}

func TestResolveEffectiveAccessOwnershipSurvivesRevocation(t *testing.T) {
	// No active assignment rows remain for the class, but the teacher still
	// authored visible items in it.
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{owned: []string{"X-IPA-1"}}, &catalogStub{}, nil, nil)

	levels, err := svc.ResolveEffectiveAccess(context.Background(), teacherClaims("teacher-1"), []string{"X-IPA-1"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessFull, levels["X-IPA-1"])
}

func TestResolveEffectiveAccessOwnershipUpgradesView(t *testing.T) {
	assignments := &assignmentRepoStub{
		active: []models.ClassAccessAssignment{
			{TeacherID: "teacher-1", ClassCode: "X-IPA-1", AccessLevel: models.AccessView, Active: true},
		},
	}
	svc := NewAccessService(assignments, &ownershipStub{owned: []string{"X-IPA-1"}}, &catalogStub{}, nil, nil)

	levels, err := svc.ResolveEffectiveAccess(context.Background(), teacherClaims("teacher-1"), []string{"X-IPA-1"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessFull, levels["X-IPA-1"])
}

func TestResolveEffectiveAccessRequiresClaims(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{}, &catalogStub{}, nil, nil)

	_, err := svc.ResolveEffectiveAccess(context.Background(), nil, []string{"X-IPA-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAccessibleClassesUnionsAssignedAndOwned(t *testing.T) {
	assignments := &assignmentRepoStub{
		activeCodes: []string{"X-IPA-2"},
		active: []models.ClassAccessAssignment{
			{TeacherID: "teacher-1", ClassCode: "X-IPA-2", AccessLevel: models.AccessView, Active: true},
		},
	}
	svc := NewAccessService(assignments, &ownershipStub{owned: []string{"X-IPA-1"}}, &catalogStub{}, nil, nil)

	classes, levels, err := svc.AccessibleClasses(context.Background(), teacherClaims("teacher-1"), "2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"X-IPA-1", "X-IPA-2"}, classes)
	assert.Equal(t, models.AccessFull, levels["X-IPA-1"])
	assert.Equal(t, models.AccessView, levels["X-IPA-2"])
}

func TestAccessibleClassesAdminSeesCatalog(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{}, &catalogStub{codes: []string{"X-IPA-1", "XI-IPS-2"}}, nil, nil)

	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin}
	classes, levels, err := svc.AccessibleClasses(context.Background(), claims, "2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"X-IPA-1", "XI-IPS-2"}, classes)
	assert.Equal(t, models.AccessFull, levels["XI-IPS-2"])
}

func TestUpsertAssignmentValidatesLevel(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{}, &ownershipStub{}, &catalogStub{}, nil, nil)

	_, err := svc.UpsertAssignment(context.Background(), dto.UpsertAccessAssignmentRequest{
		TeacherID:   "teacher-1",
		ClassCode:   "X-IPA-1",
		AccessLevel: "OWNER",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertAssignmentStoresRow(t *testing.T) {
	assignments := &assignmentRepoStub{}
	svc := NewAccessService(assignments, &ownershipStub{}, &catalogStub{}, nil, nil)

	stored, err := svc.UpsertAssignment(context.Background(), dto.UpsertAccessAssignmentRequest{
		TeacherID:   "teacher-1",
		ClassCode:   "X-IPA-1",
		AccessLevel: models.AccessCoTeacher,
	})
	require.NoError(t, err)
	require.NotNil(t, assignments.upserted)
	assert.Equal(t, models.AccessCoTeacher, stored.AccessLevel)
}

func TestDeactivateAssignmentMissing(t *testing.T) {
	svc := NewAccessService(&assignmentRepoStub{deactivateErr: sql.ErrNoRows}, &ownershipStub{}, &catalogStub{}, nil, nil)

	err := svc.DeactivateAssignment(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
