package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/harada-api/internal/models"
)

// ChartRepository persists charts and their grid cells.
type ChartRepository struct {
	db *sqlx.DB
}

// NewChartRepository constructs a chart repository.
func NewChartRepository(db *sqlx.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

// FindByUserID returns the chart owned by the given user.
func (r *ChartRepository) FindByUserID(ctx context.Context, userID string) (*models.Chart, error) {
	const query = `SELECT id, user_id, title, created_at, updated_at FROM charts WHERE user_id = $1 LIMIT 1`
	var chart models.Chart
	if err := r.db.GetContext(ctx, &chart, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find chart by user: %w", err)
	}
	return &chart, nil
}

// FindByID returns a chart by identifier.
func (r *ChartRepository) FindByID(ctx context.Context, id string) (*models.Chart, error) {
	const query = `SELECT id, user_id, title, created_at, updated_at FROM charts WHERE id = $1 LIMIT 1`
	var chart models.Chart
	if err := r.db.GetContext(ctx, &chart, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find chart by id: %w", err)
	}
	return &chart, nil
}

// Create inserts a new chart.
func (r *ChartRepository) Create(ctx context.Context, chart *models.Chart) error {
	if chart.ID == "" {
		chart.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chart.CreatedAt.IsZero() {
		chart.CreatedAt = now
	}
	chart.UpdatedAt = now
	const query = `INSERT INTO charts (id, user_id, title, created_at, updated_at) VALUES (:id, :user_id, :title, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, chart); err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	return nil
}

// ListCells returns all filled cells of a chart in grid order.
func (r *ChartRepository) ListCells(ctx context.Context, chartID string) ([]models.ChartCell, error) {
	const query = `SELECT id, chart_id, row_index, col_index, cell_type, content, created_at, updated_at
FROM chart_cells WHERE chart_id = $1 ORDER BY row_index ASC, col_index ASC`
	var cells []models.ChartCell
	if err := r.db.SelectContext(ctx, &cells, query, chartID); err != nil {
		return nil, fmt.Errorf("list chart cells: %w", err)
	}
	return cells, nil
}

// UpsertCell inserts or replaces the content of one cell in a single
// statement. The unique index on (chart_id, row_index, col_index)
// serialises racing writers at the store boundary.
func (r *ChartRepository) UpsertCell(ctx context.Context, cell *models.ChartCell) error {
	if cell.ID == "" {
		cell.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cell.CreatedAt.IsZero() {
		cell.CreatedAt = now
	}
	cell.UpdatedAt = now
	const query = `INSERT INTO chart_cells (id, chart_id, row_index, col_index, cell_type, content, created_at, updated_at)
VALUES (:id, :chart_id, :row_index, :col_index, :cell_type, :content, :created_at, :updated_at)
ON CONFLICT (chart_id, row_index, col_index)
DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cell); err != nil {
		return fmt.Errorf("upsert chart cell: %w", err)
	}
	return nil
}

// DeleteCell removes the cell at the given position.
func (r *ChartRepository) DeleteCell(ctx context.Context, chartID string, row, col int) error {
	const query = `DELETE FROM chart_cells WHERE chart_id = $1 AND row_index = $2 AND col_index = $3`
	if _, err := r.db.ExecContext(ctx, query, chartID, row, col); err != nil {
		return fmt.Errorf("delete chart cell: %w", err)
	}
	return nil
}

// ListActionCells returns action cells eligible for weekly sampling:
// cell_type action with non-empty content.
func (r *ChartRepository) ListActionCells(ctx context.Context, chartID string) ([]models.ChartCell, error) {
	const query = `SELECT id, chart_id, row_index, col_index, cell_type, content, created_at, updated_at
FROM chart_cells WHERE chart_id = $1 AND cell_type = 'action' AND content <> '' ORDER BY row_index ASC, col_index ASC`
	var cells []models.ChartCell
	if err := r.db.SelectContext(ctx, &cells, query, chartID); err != nil {
		return nil, fmt.Errorf("list action cells: %w", err)
	}
	return cells, nil
}
