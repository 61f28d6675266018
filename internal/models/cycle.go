package models

import "time"

// CycleStatus is the lifecycle state of a weekly cycle.
type CycleStatus string

const (
	CycleStatusPlanned    CycleStatus = "planned"
	CycleStatusInProgress CycleStatus = "in_progress"
	CycleStatusCompleted  CycleStatus = "completed"
)

// WeeklyCycle is one review week for a chart. At most one non-completed
// cycle exists per (chart_id, week_start_date); completed cycles are
// terminal and never reopened.
type WeeklyCycle struct {
	ID            string      `db:"id" json:"id"`
	ChartID       string      `db:"chart_id" json:"chart_id"`
	WeekStartDate time.Time   `db:"week_start_date" json:"week_start_date"`
	WeekEndDate   time.Time   `db:"week_end_date" json:"week_end_date"`
	Status        CycleStatus `db:"status" json:"status"`
	StartJournal  string      `db:"start_journal" json:"start_journal"`
	EndReview     string      `db:"end_review" json:"end_review"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// CompletionStatus tracks progress on a sampled weekly action.
type CompletionStatus string

const (
	CompletionNotStarted CompletionStatus = "not_started"
	CompletionInProgress CompletionStatus = "in_progress"
	CompletionCompleted  CompletionStatus = "completed"
	CompletionSkipped    CompletionStatus = "skipped"
	CompletionPartial    CompletionStatus = "partial"
)

// ValidCompletionStatus reports whether s is a known completion status.
func ValidCompletionStatus(s CompletionStatus) bool {
	switch s {
	case CompletionNotStarted, CompletionInProgress, CompletionCompleted, CompletionSkipped, CompletionPartial:
		return true
	}
	return false
}

// WeeklyAction joins a cycle to one sampled action cell. Rows only exist
// for selected actions, so IsSelected is always true on insert.
type WeeklyAction struct {
	ID               string           `db:"id" json:"id"`
	CycleID          string           `db:"cycle_id" json:"cycle_id"`
	CellID           string           `db:"cell_id" json:"cell_id"`
	IsSelected       bool             `db:"is_selected" json:"is_selected"`
	CompletionStatus CompletionStatus `db:"completion_status" json:"completion_status"`
	ReflectionNotes  string           `db:"reflection_notes" json:"reflection_notes"`
	Score            *int             `db:"score" json:"score"`
	CompletedDate    *time.Time       `db:"completed_date" json:"completed_date,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// WeeklyActionWithCell carries the joined cell for list views.
type WeeklyActionWithCell struct {
	WeeklyAction
	CellContent  string   `db:"cell_content" json:"cell_content"`
	CellRowIndex int      `db:"cell_row_index" json:"cell_row_index"`
	CellColIndex int      `db:"cell_col_index" json:"cell_col_index"`
	CellType     CellType `db:"cell_type" json:"cell_type"`
}
