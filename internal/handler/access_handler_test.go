package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
)

type accessServiceStub struct {
	assignments []models.ClassAccessAssignment
	upserted    *models.ClassAccessAssignment
	upsertErr   error
	revokeErr   error
	lastFilter  dto.AccessAssignmentFilter
}

func (s *accessServiceStub) ListAssignments(ctx context.Context, filter dto.AccessAssignmentFilter) ([]models.ClassAccessAssignment, error) {
	s.lastFilter = filter
	return s.assignments, nil
}

func (s *accessServiceStub) UpsertAssignment(ctx context.Context, req dto.UpsertAccessAssignmentRequest) (*models.ClassAccessAssignment, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = &models.ClassAccessAssignment{
		TeacherID:   req.TeacherID,
		ClassCode:   req.ClassCode,
		AccessLevel: req.AccessLevel,
		Active:      true,
	}
	return s.upserted, nil
}

func (s *accessServiceStub) DeactivateAssignment(ctx context.Context, id string) error {
	return s.revokeErr
}

func buildAccessRouter(svc *accessServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAccessHandler(svc)
	router.GET("/access/assignments", h.ListAssignments)
	router.POST("/access/assignments", h.UpsertAssignment)
	router.DELETE("/access/assignments/:id", h.DeactivateAssignment)
	return router
}

func TestAccessHandlerListAssignments(t *testing.T) {
	svc := &accessServiceStub{assignments: []models.ClassAccessAssignment{
		{ID: "a-1", TeacherID: "teacher-1", ClassCode: "X-IPA-1", AccessLevel: models.AccessView, Active: true},
	}}
	router := buildAccessRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/access/assignments?teacher_id=teacher-1&class=X-IPA-1", nil)
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "teacher-1", svc.lastFilter.TeacherID)
	assert.Equal(t, "X-IPA-1", svc.lastFilter.ClassCode)
	assert.Contains(t, resp.Body.String(), "X-IPA-1")
}

func TestAccessHandlerUpsertAssignment(t *testing.T) {
	svc := &accessServiceStub{}
	router := buildAccessRouter(svc)

	body := bytes.NewBufferString(`{"teacherId":"teacher-1","classCode":"X-IPA-1","accessLevel":"FULL"}`)
	req, _ := http.NewRequest(http.MethodPost, "/access/assignments", body)
	req.Header.Set("Content-Type", "application/json")
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.upserted)
	assert.Equal(t, models.AccessFull, svc.upserted.AccessLevel)
}

func TestAccessHandlerUpsertValidationError(t *testing.T) {
	svc := &accessServiceStub{upsertErr: appErrors.Clone(appErrors.ErrValidation, "invalid access assignment payload")}
	router := buildAccessRouter(svc)

	body := bytes.NewBufferString(`{"teacherId":"teacher-1","classCode":"X-IPA-1","accessLevel":"OWNER"}`)
	req, _ := http.NewRequest(http.MethodPost, "/access/assignments", body)
	req.Header.Set("Content-Type", "application/json")
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAccessHandlerDeactivateMissing(t *testing.T) {
	svc := &accessServiceStub{revokeErr: appErrors.Clone(appErrors.ErrNotFound, "active assignment not found")}
	router := buildAccessRouter(svc)

	req, _ := http.NewRequest(http.MethodDelete, "/access/assignments/ghost", nil)
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAccessHandlerDeactivate(t *testing.T) {
	router := buildAccessRouter(&accessServiceStub{})

	req, _ := http.NewRequest(http.MethodDelete, "/access/assignments/a-1", nil)
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"revoked":true`)
}
