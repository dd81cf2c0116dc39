package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-matrix-api/internal/dto"
	"github.com/noah-isme/class-matrix-api/internal/models"
	appErrors "github.com/noah-isme/class-matrix-api/pkg/errors"
	"github.com/noah-isme/class-matrix-api/pkg/response"
)

type curriculumService interface {
	Resolve(ctx context.Context, classCode, academicYear string) (*models.CurriculumResolution, error)
	UpsertMapping(ctx context.Context, req dto.UpsertCurriculumMappingRequest) (*models.CurriculumMapping, error)
}

// CurriculumHandler serves curriculum resolution and the admin mapping surface.
type CurriculumHandler struct {
	curriculum curriculumService
}

func NewCurriculumHandler(curriculum curriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// Resolve godoc
// @Summary Resolve the curriculum assignment for a class and year
// @Tags Curriculum
// @Produce json
// @Param class query string true "Class code"
// @Param year query string true "Academic year (YYYY)"
// @Success 200 {object} response.Envelope
// @Router /matrix/curriculum [get]
func (h *CurriculumHandler) Resolve(c *gin.Context) {
	var query dto.CurriculumQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid curriculum query"))
		return
	}
	resolution, err := h.curriculum.Resolve(c.Request.Context(), query.Class, query.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolution, nil)
}

// UpsertMapping godoc
// @Summary Create or replace a curriculum mapping row
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body dto.UpsertCurriculumMappingRequest true "Mapping"
// @Success 200 {object} response.Envelope
// @Router /curriculum/mappings [post]
func (h *CurriculumHandler) UpsertMapping(c *gin.Context) {
	var req dto.UpsertCurriculumMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid curriculum mapping payload"))
		return
	}
	mapping, err := h.curriculum.UpsertMapping(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mapping, nil)
}
