package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/models"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
)

type chartServiceMock struct {
	chart   *dto.ChartResponse
	cell    *models.ChartCell
	err     error
	deleted [][2]int
}

func (m *chartServiceMock) GetChartWithCells(ctx context.Context, userID string) (*dto.ChartResponse, bool, error) {
	return m.chart, false, m.err
}

func (m *chartServiceMock) UpsertCell(ctx context.Context, userID, chartID string, row, col int, req dto.UpdateCellRequest) (*models.ChartCell, error) {
	return m.cell, m.err
}

func (m *chartServiceMock) DeleteCell(ctx context.Context, userID, chartID string, row, col int) error {
	if m.err == nil {
		m.deleted = append(m.deleted, [2]int{row, col})
	}
	return m.err
}

func TestChartHandlerMyChart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChartHandler(&chartServiceMock{
		chart: &dto.ChartResponse{
			Chart: models.Chart{ID: "chart-1", UserID: "user-1", Title: models.DefaultChartTitle},
			Cells: []models.ChartCell{},
		},
	})

	c, w := newGinContext(http.MethodGet, "/charts/me", nil)
	withUser(c, "user-1", models.RoleUser)

	handler.MyChart(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), models.DefaultChartTitle)
	require.Contains(t, w.Body.String(), "cache_hit")
}

func TestChartHandlerMyChartUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChartHandler(&chartServiceMock{})

	c, w := newGinContext(http.MethodGet, "/charts/me", nil)
	handler.MyChart(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChartHandlerUpsertCell(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChartHandler(&chartServiceMock{
		cell: &models.ChartCell{ID: "cell-1", ChartID: "chart-1", RowIndex: 4, ColIndex: 4, CellType: models.CellTypeGoal, Content: "run a marathon"},
	})

	payload, _ := json.Marshal(dto.UpdateCellRequest{Content: "run a marathon"})
	c, w := newGinContext(http.MethodPut, "/charts/chart-1/cells/4/4", payload)
	c.Params = gin.Params{
		{Key: "chartId", Value: "chart-1"},
		{Key: "row", Value: "4"},
		{Key: "col", Value: "4"},
	}
	withUser(c, "user-1", models.RoleUser)

	handler.UpsertCell(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), string(models.CellTypeGoal))
}

func TestChartHandlerUpsertCellNonNumericCoordinates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChartHandler(&chartServiceMock{})

	payload, _ := json.Marshal(dto.UpdateCellRequest{Content: "x"})
	c, w := newGinContext(http.MethodPut, "/charts/chart-1/cells/four/4", payload)
	c.Params = gin.Params{
		{Key: "chartId", Value: "chart-1"},
		{Key: "row", Value: "four"},
		{Key: "col", Value: "4"},
	}
	withUser(c, "user-1", models.RoleUser)

	handler.UpsertCell(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartHandlerUpsertCellForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewChartHandler(&chartServiceMock{err: appErrors.ErrForbidden})

	payload, _ := json.Marshal(dto.UpdateCellRequest{Content: "x"})
	c, w := newGinContext(http.MethodPut, "/charts/chart-2/cells/0/0", payload)
	c.Params = gin.Params{
		{Key: "chartId", Value: "chart-2"},
		{Key: "row", Value: "0"},
		{Key: "col", Value: "0"},
	}
	withUser(c, "user-1", models.RoleUser)

	handler.UpsertCell(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestChartHandlerDeleteCell(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &chartServiceMock{}
	handler := NewChartHandler(mock)

	c, w := newGinContext(http.MethodDelete, "/charts/chart-1/cells/2/7", nil)
	c.Params = gin.Params{
		{Key: "chartId", Value: "chart-1"},
		{Key: "row", Value: "2"},
		{Key: "col", Value: "7"},
	}
	withUser(c, "user-1", models.RoleUser)

	handler.DeleteCell(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, [][2]int{{2, 7}}, mock.deleted)
}
