package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/grid"
	"github.com/noah-isme/harada-api/internal/models"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
)

type chartStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Chart, error)
	FindByID(ctx context.Context, id string) (*models.Chart, error)
	Create(ctx context.Context, chart *models.Chart) error
	ListCells(ctx context.Context, chartID string) ([]models.ChartCell, error)
	UpsertCell(ctx context.Context, cell *models.ChartCell) error
	DeleteCell(ctx context.Context, chartID string, row, col int) error
}

type chartAuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ChartService manages a user's chart and its grid cells.
type ChartService struct {
	store    chartStore
	audit    chartAuditStore
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewChartService constructs a ChartService instance.
func NewChartService(store chartStore, audit chartAuditStore, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ChartService{store: store, audit: audit, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func chartCacheKey(chartID string) string {
	return fmt.Sprintf("harada:chart:%s:cells", chartID)
}

func chartCachePattern(chartID string) string {
	return fmt.Sprintf("harada:chart:%s:*", chartID)
}

// GetOrCreateChart returns the caller's chart, creating an empty one with
// a default title on first access.
func (s *ChartService) GetOrCreateChart(ctx context.Context, userID string) (*models.Chart, error) {
	chart, err := s.store.FindByUserID(ctx, userID)
	if err == nil {
		return chart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chart")
	}

	chart = &models.Chart{
		UserID: userID,
		Title:  models.DefaultChartTitle,
	}
	if err := s.store.Create(ctx, chart); err != nil {
		// A concurrent first request may have created it already.
		if existing, findErr := s.store.FindByUserID(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chart")
	}
	return chart, nil
}

// GetChartWithCells returns the caller's chart together with every filled
// cell, serving the cell list from cache when possible. The second return
// value reports whether the cell list came from cache.
func (s *ChartService) GetChartWithCells(ctx context.Context, userID string) (*dto.ChartResponse, bool, error) {
	chart, err := s.GetOrCreateChart(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	key := chartCacheKey(chart.ID)
	var cells []models.ChartCell
	if hit, _ := s.cache.Get(ctx, key, &cells); hit {
		return &dto.ChartResponse{Chart: *chart, Cells: cells}, true, nil
	}

	cells, err = s.store.ListCells(ctx, chart.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chart cells")
	}
	if cells == nil {
		cells = []models.ChartCell{}
	}

	if err := s.cache.Set(ctx, key, cells, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache chart cells", zap.String("chart_id", chart.ID), zap.Error(err))
	}

	return &dto.ChartResponse{Chart: *chart, Cells: cells}, false, nil
}

// resolveOwnedChart loads a chart and checks the caller owns it.
func (s *ChartService) resolveOwnedChart(ctx context.Context, chartID, userID string) (*models.Chart, error) {
	chart, err := s.store.FindByID(ctx, chartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chart not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chart")
	}
	if chart.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "chart does not belong to user")
	}
	return chart, nil
}

// UpsertCell writes the content of one grid cell, deriving and persisting
// the cell's role from its position.
func (s *ChartService) UpsertCell(ctx context.Context, userID, chartID string, row, col int, req dto.UpdateCellRequest) (*models.ChartCell, error) {
	if !grid.InRange(row, col) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell (%d,%d) is outside the 9x9 grid", row, col))
	}

	chart, err := s.resolveOwnedChart(ctx, chartID, userID)
	if err != nil {
		return nil, err
	}

	role, _ := grid.Classify(row, col)
	cell := &models.ChartCell{
		ChartID:  chart.ID,
		RowIndex: row,
		ColIndex: col,
		CellType: models.CellType(role),
		Content:  req.Content,
	}
	if err := s.store.UpsertCell(ctx, cell); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save cell")
	}

	if err := s.cache.Invalidate(ctx, chartCachePattern(chart.ID)); err != nil {
		s.logger.Warn("failed to invalidate chart cache", zap.String("chart_id", chart.ID), zap.Error(err))
	}

	s.recordCellAudit(ctx, userID, chart.ID, models.AuditActionCellUpdate, cell)

	return cell, nil
}

// DeleteCell clears the cell at the given position.
func (s *ChartService) DeleteCell(ctx context.Context, userID, chartID string, row, col int) error {
	if !grid.InRange(row, col) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell (%d,%d) is outside the 9x9 grid", row, col))
	}

	chart, err := s.resolveOwnedChart(ctx, chartID, userID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCell(ctx, chart.ID, row, col); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete cell")
	}

	if err := s.cache.Invalidate(ctx, chartCachePattern(chart.ID)); err != nil {
		s.logger.Warn("failed to invalidate chart cache", zap.String("chart_id", chart.ID), zap.Error(err))
	}

	s.recordCellAudit(ctx, userID, chart.ID, models.AuditActionCellDelete, &models.ChartCell{
		ChartID:  chart.ID,
		RowIndex: row,
		ColIndex: col,
	})

	return nil
}

func (s *ChartService) recordCellAudit(ctx context.Context, userID, chartID, action string, cell *models.ChartCell) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"row_index": cell.RowIndex,
		"col_index": cell.ColIndex,
		"cell_type": cell.CellType,
	})
	if err != nil {
		payload = nil
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "chart_cell",
		ResourceID: &chartID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record cell audit log", zap.Error(err))
	}
}
