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

type gridService interface {
	BuildGrid(ctx context.Context, claims *models.JWTClaims, academicYear string) (*dto.GridResponse, error)
	BulkAssign(ctx context.Context, claims *models.JWTClaims, req dto.BulkAssignRequest) (*dto.BulkAssignResponse, error)
	ExportGrid(ctx context.Context, claims *models.JWTClaims, academicYear, format string) ([]byte, string, string, error)
}

type matrixService interface {
	GetCell(ctx context.Context, claims *models.JWTClaims, cellID string) (*models.MatrixCellDetail, error)
	AttachItem(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.AttachItemRequest) (*dto.CellResponse, error)
	DetachItem(ctx context.Context, claims *models.JWTClaims, cellID, itemID string) (*dto.CellResponse, error)
	UpdateSchedule(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.UpdateScheduleRequest) (*dto.CellResponse, error)
	SetStatus(ctx context.Context, claims *models.JWTClaims, cellID string, req dto.SetStatusRequest) (*dto.CellResponse, error)
	Clone(ctx context.Context, claims *models.JWTClaims, sourceCellID string, req dto.CloneRequest) (*dto.CloneResponse, error)
}

// MatrixHandler exposes the scheduling grid and cell mutation endpoints.
type MatrixHandler struct {
	grid          gridService
	matrix        matrixService
	exportEnabled bool
}

// NewMatrixHandler builds a new handler.
func NewMatrixHandler(grid gridService, matrix matrixService, exportEnabled bool) *MatrixHandler {
	return &MatrixHandler{grid: grid, matrix: matrix, exportEnabled: exportEnabled}
}

// Grid godoc
// @Summary Assemble the caller's scheduling grid for a year
// @Tags Matrix
// @Produce json
// @Param year query string true "Academic year (YYYY)"
// @Success 200 {object} response.Envelope
// @Router /matrix/grid [get]
func (h *MatrixHandler) Grid(c *gin.Context) {
	claims := claimsFromContext(c)
	grid, err := h.grid.BuildGrid(c.Request.Context(), claims, c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ExportGrid godoc
// @Summary Export the caller's grid as CSV or PDF
// @Tags Matrix
// @Produce text/csv,application/pdf
// @Param year query string true "Academic year (YYYY)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /matrix/grid/export [get]
func (h *MatrixHandler) ExportGrid(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "grid export is disabled"))
		return
	}
	claims := claimsFromContext(c)
	payload, contentType, filename, err := h.grid.ExportGrid(c.Request.Context(), claims, c.Query("year"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// GetCell godoc
// @Summary Fetch one cell with its item and share sets
// @Tags Matrix
// @Produce json
// @Param id path string true "Cell ID"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id} [get]
func (h *MatrixHandler) GetCell(c *gin.Context) {
	claims := claimsFromContext(c)
	detail, err := h.matrix.GetCell(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AttachItem godoc
// @Summary Attach an assessment item to a cell
// @Tags Matrix
// @Accept json
// @Produce json
// @Param id path string true "Cell ID"
// @Param payload body dto.AttachItemRequest true "Item reference"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id}/items [post]
func (h *MatrixHandler) AttachItem(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.AttachItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attach payload"))
		return
	}
	cell, err := h.matrix.AttachItem(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// DetachItem godoc
// @Summary Detach an assessment item from a cell
// @Tags Matrix
// @Produce json
// @Param id path string true "Cell ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id}/items/{itemId} [delete]
func (h *MatrixHandler) DetachItem(c *gin.Context) {
	claims := claimsFromContext(c)
	cell, err := h.matrix.DetachItem(c.Request.Context(), claims, c.Param("id"), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// UpdateSchedule godoc
// @Summary Partially update a cell's schedule
// @Tags Matrix
// @Accept json
// @Produce json
// @Param id path string true "Cell ID"
// @Param payload body dto.UpdateScheduleRequest true "Schedule fields"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id}/schedule [post]
func (h *MatrixHandler) UpdateSchedule(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	cell, err := h.matrix.UpdateSchedule(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// SetStatus godoc
// @Summary Apply an explicit lifecycle action to a cell
// @Tags Matrix
// @Accept json
// @Produce json
// @Param id path string true "Cell ID"
// @Param payload body dto.SetStatusRequest true "Status action"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id}/status [post]
func (h *MatrixHandler) SetStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	cell, err := h.matrix.SetStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// Clone godoc
// @Summary Propagate a cell's content to other coordinates
// @Tags Matrix
// @Accept json
// @Produce json
// @Param id path string true "Source cell ID"
// @Param payload body dto.CloneRequest true "Clone targets"
// @Success 200 {object} response.Envelope
// @Router /matrix/cells/{id}/clone [post]
func (h *MatrixHandler) Clone(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CloneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clone payload"))
		return
	}
	result, err := h.matrix.Clone(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkAssign godoc
// @Summary Attach items to cells in bulk, best effort
// @Tags Matrix
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRequest true "Item and cell ID sets"
// @Success 200 {object} response.Envelope
// @Router /matrix/bulk-assign [post]
func (h *MatrixHandler) BulkAssign(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk assign payload"))
		return
	}
	result, err := h.grid.BulkAssign(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Succeeded == 0 && result.Failed > 0 {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}
