package dto

import "github.com/noah-isme/harada-api/internal/models"

// StartCycleRequest moves a planned cycle into progress.
type StartCycleRequest struct {
	StartJournal string `json:"start_journal" validate:"required"`
}

// CompleteCycleRequest finishes an in-progress cycle.
type CompleteCycleRequest struct {
	EndReview string `json:"end_review" validate:"required"`
}

// UpdateActionStatusRequest changes the completion status of one action.
type UpdateActionStatusRequest struct {
	Status models.CompletionStatus `json:"status" validate:"required"`
}

// UpdateActionScoreRequest records a 0-5 self assessment.
type UpdateActionScoreRequest struct {
	Score *int `json:"score" validate:"required"`
}

// UpdateActionNotesRequest overwrites the reflection notes of an action.
type UpdateActionNotesRequest struct {
	Notes string `json:"notes"`
}

// CycleHistoryFilter pages through completed cycles of a chart.
type CycleHistoryFilter struct {
	Page     int
	PageSize int
}
