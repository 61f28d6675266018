package dto

import "github.com/noah-isme/harada-api/internal/models"

// ExportRequest asks for an asynchronous export of a chart's review data.
type ExportRequest struct {
	ChartID string              `json:"chart_id" validate:"required"`
	CycleID *string             `json:"cycle_id,omitempty"`
	Type    models.ExportType   `json:"type" validate:"required"`
	Format  models.ExportFormat `json:"format" validate:"required"`
}

// ExportJobResponse acknowledges job creation.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports job progress and the signed result URL.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
