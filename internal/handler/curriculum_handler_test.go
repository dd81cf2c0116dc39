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

type curriculumServiceStub struct {
	resolution *models.CurriculumResolution
	mapping    *models.CurriculumMapping
	err        error
}

func (s *curriculumServiceStub) Resolve(ctx context.Context, classCode, academicYear string) (*models.CurriculumResolution, error) {
	if classCode == "" || academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class and year are required")
	}
	return s.resolution, s.err
}

func (s *curriculumServiceStub) UpsertMapping(ctx context.Context, req dto.UpsertCurriculumMappingRequest) (*models.CurriculumMapping, error) {
	return s.mapping, s.err
}

func buildCurriculumRouter(svc *curriculumServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewCurriculumHandler(svc)
	router.GET("/matrix/curriculum", h.Resolve)
	router.POST("/curriculum/mappings", h.UpsertMapping)
	return router
}

func TestCurriculumHandlerResolve(t *testing.T) {
	svc := &curriculumServiceStub{resolution: &models.CurriculumResolution{
		ClassCode:    "X-IPA-1",
		AcademicYear: "2025",
		Assigned:     true,
		Primary:      &models.CurriculumMapping{Priority: 1, CurriculumLevel: "MERDEKA"},
	}}
	router := buildCurriculumRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/matrix/curriculum?class=X-IPA-1&year=2025", nil)
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "MERDEKA")
}

func TestCurriculumHandlerResolveMissingParams(t *testing.T) {
	router := buildCurriculumRouter(&curriculumServiceStub{})

	req, _ := http.NewRequest(http.MethodGet, "/matrix/curriculum?class=X-IPA-1", nil)
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCurriculumHandlerUpsertMapping(t *testing.T) {
	svc := &curriculumServiceStub{mapping: &models.CurriculumMapping{ID: "m-1", ClassCode: "X-IPA-1", Priority: 1, CurriculumLevel: "K13"}}
	router := buildCurriculumRouter(svc)

	body := bytes.NewBufferString(`{"classCode":"X-IPA-1","academicYear":"2025","priority":1,"curriculumLevel":"K13"}`)
	req, _ := http.NewRequest(http.MethodPost, "/curriculum/mappings", body)
	req.Header.Set("Content-Type", "application/json")
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "K13")
}

func TestCurriculumHandlerUpsertBadPayload(t *testing.T) {
	router := buildCurriculumRouter(&curriculumServiceStub{})

	req, _ := http.NewRequest(http.MethodPost, "/curriculum/mappings", bytes.NewBufferString(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	resp := performMatrixRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}
