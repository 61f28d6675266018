package models

import "time"

// DefaultChartTitle is used when a chart is created implicitly for a user.
const DefaultChartTitle = "My Harada Chart"

// Chart is one Harada chart; each user owns exactly one.
type Chart struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CellType mirrors the grid role persisted with each cell. The type is
// cached at write time so the sampling query never recomputes topology.
type CellType string

const (
	CellTypeGoal     CellType = "goal"
	CellTypeBehavior CellType = "behavior"
	CellTypeAction   CellType = "action"
)

// ChartCell is one filled cell of the 9x9 grid, unique per
// (chart_id, row_index, col_index).
type ChartCell struct {
	ID        string    `db:"id" json:"id"`
	ChartID   string    `db:"chart_id" json:"chart_id"`
	RowIndex  int       `db:"row_index" json:"row_index"`
	ColIndex  int       `db:"col_index" json:"col_index"`
	CellType  CellType  `db:"cell_type" json:"cell_type"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
