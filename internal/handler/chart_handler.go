package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/middleware"
	"github.com/noah-isme/harada-api/internal/models"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
	"github.com/noah-isme/harada-api/pkg/response"
)

type chartService interface {
	GetChartWithCells(ctx context.Context, userID string) (*dto.ChartResponse, bool, error)
	UpsertCell(ctx context.Context, userID, chartID string, row, col int, req dto.UpdateCellRequest) (*models.ChartCell, error)
	DeleteCell(ctx context.Context, userID, chartID string, row, col int) error
}

// ChartHandler exposes chart and grid-cell endpoints.
type ChartHandler struct {
	service chartService
}

// NewChartHandler constructs the handler.
func NewChartHandler(service chartService) *ChartHandler {
	return &ChartHandler{service: service}
}

func cellCoordinates(c *gin.Context) (int, int, error) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "row must be an integer")
	}
	col, err := strconv.Atoi(c.Param("col"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "col must be an integer")
	}
	return row, col, nil
}

// MyChart godoc
// @Summary Get the caller's chart
// @Description Returns the authenticated user's chart and filled cells, creating an empty chart on first access
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /charts/me [get]
func (h *ChartHandler) MyChart(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	chart, cacheHit, err := h.service.GetChartWithCells(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, chart, nil, middleware.ExtractMeta(c))
}

// ListCells godoc
// @Summary List chart cells
// @Tags Charts
// @Produce json
// @Param chartId path string true "Chart ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /charts/{chartId}/cells [get]
func (h *ChartHandler) ListCells(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	chart, cacheHit, err := h.service.GetChartWithCells(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if chart.Chart.ID != c.Param("chartId") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "chart does not belong to user"))
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, chart.Cells, nil, middleware.ExtractMeta(c))
}

// UpsertCell godoc
// @Summary Write one grid cell
// @Description Creates or overwrites the content of the cell at (row, col)
// @Tags Charts
// @Accept json
// @Produce json
// @Param chartId path string true "Chart ID"
// @Param row path int true "Row index (0-8)"
// @Param col path int true "Column index (0-8)"
// @Param payload body dto.UpdateCellRequest true "Cell content"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /charts/{chartId}/cells/{row}/{col} [put]
func (h *ChartHandler) UpsertCell(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	row, col, err := cellCoordinates(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell payload"))
		return
	}
	cell, err := h.service.UpsertCell(c.Request.Context(), claims.UserID, c.Param("chartId"), row, col, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// DeleteCell godoc
// @Summary Clear one grid cell
// @Tags Charts
// @Produce json
// @Param chartId path string true "Chart ID"
// @Param row path int true "Row index (0-8)"
// @Param col path int true "Column index (0-8)"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /charts/{chartId}/cells/{row}/{col} [delete]
func (h *ChartHandler) DeleteCell(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	row, col, err := cellCoordinates(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteCell(c.Request.Context(), claims.UserID, c.Param("chartId"), row, col); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
