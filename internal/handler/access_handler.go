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

type accessService interface {
	ListAssignments(ctx context.Context, filter dto.AccessAssignmentFilter) ([]models.ClassAccessAssignment, error)
	UpsertAssignment(ctx context.Context, req dto.UpsertAccessAssignmentRequest) (*models.ClassAccessAssignment, error)
	DeactivateAssignment(ctx context.Context, id string) error
}

// AccessHandler serves the admin surface for class access assignments.
type AccessHandler struct {
	access accessService
}

func NewAccessHandler(access accessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// ListAssignments godoc
// @Summary List access assignment rows, including revoked history
// @Tags Access
// @Produce json
// @Param teacher_id query string false "Filter by teacher"
// @Param class query string false "Filter by class code"
// @Success 200 {object} response.Envelope
// @Router /access/assignments [get]
func (h *AccessHandler) ListAssignments(c *gin.Context) {
	filter := dto.AccessAssignmentFilter{
		TeacherID: c.Query("teacher_id"),
		ClassCode: c.Query("class"),
	}
	assignments, err := h.access.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// UpsertAssignment godoc
// @Summary Grant or replace a teacher's base access to a class
// @Tags Access
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAccessAssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Router /access/assignments [post]
func (h *AccessHandler) UpsertAssignment(c *gin.Context) {
	var req dto.UpsertAccessAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.access.UpsertAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// DeactivateAssignment godoc
// @Summary Revoke an access assignment, keeping it as history
// @Tags Access
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /access/assignments/{id} [delete]
func (h *AccessHandler) DeactivateAssignment(c *gin.Context) {
	if err := h.access.DeactivateAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"revoked": true}, nil)
}
