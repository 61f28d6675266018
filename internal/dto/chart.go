package dto

import "github.com/noah-isme/harada-api/internal/models"

// UpdateCellRequest carries new content for one grid cell.
type UpdateCellRequest struct {
	Content string `json:"content"`
}

// ChartResponse bundles a chart with its filled cells.
type ChartResponse struct {
	Chart models.Chart       `json:"chart"`
	Cells []models.ChartCell `json:"cells"`
}
