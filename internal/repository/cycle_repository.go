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

// CycleRepository persists weekly cycles and their sampled actions.
type CycleRepository struct {
	db *sqlx.DB
}

// NewCycleRepository constructs a cycle repository.
func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// FindActiveByWeek returns the non-completed cycle for a chart and week
// start date. A completed cycle never matches, so a fresh cycle can be
// created for the same week after completion.
func (r *CycleRepository) FindActiveByWeek(ctx context.Context, chartID string, weekStart time.Time) (*models.WeeklyCycle, error) {
	const query = `SELECT id, chart_id, week_start_date, week_end_date, status, start_journal, end_review, created_at, updated_at
FROM weekly_cycles WHERE chart_id = $1 AND week_start_date = $2 AND status <> 'completed' LIMIT 1`
	var cycle models.WeeklyCycle
	if err := r.db.GetContext(ctx, &cycle, query, chartID, weekStart); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active cycle: %w", err)
	}
	return &cycle, nil
}

// FindByID returns a cycle by identifier.
func (r *CycleRepository) FindByID(ctx context.Context, id string) (*models.WeeklyCycle, error) {
	const query = `SELECT id, chart_id, week_start_date, week_end_date, status, start_journal, end_review, created_at, updated_at
FROM weekly_cycles WHERE id = $1 LIMIT 1`
	var cycle models.WeeklyCycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cycle by id: %w", err)
	}
	return &cycle, nil
}

// Create inserts a new cycle.
func (r *CycleRepository) Create(ctx context.Context, cycle *models.WeeklyCycle) error {
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cycle.CreatedAt.IsZero() {
		cycle.CreatedAt = now
	}
	cycle.UpdatedAt = now
	const query = `INSERT INTO weekly_cycles (id, chart_id, week_start_date, week_end_date, status, start_journal, end_review, created_at, updated_at)
VALUES (:id, :chart_id, :week_start_date, :week_end_date, :status, :start_journal, :end_review, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cycle); err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}
	return nil
}

// MarkStarted moves a cycle into in_progress and stores the journal.
func (r *CycleRepository) MarkStarted(ctx context.Context, id, startJournal string) error {
	const query = `UPDATE weekly_cycles SET status = 'in_progress', start_journal = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, startJournal, time.Now().UTC()); err != nil {
		return fmt.Errorf("start cycle: %w", err)
	}
	return nil
}

// MarkCompleted moves a cycle into completed and stores the review.
func (r *CycleRepository) MarkCompleted(ctx context.Context, id, endReview string) error {
	const query = `UPDATE weekly_cycles SET status = 'completed', end_review = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, endReview, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete cycle: %w", err)
	}
	return nil
}

// ListCompleted returns completed cycles of a chart, newest week first.
func (r *CycleRepository) ListCompleted(ctx context.Context, chartID string, page, pageSize int) ([]models.WeeklyCycle, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, chart_id, week_start_date, week_end_date, status, start_journal, end_review, created_at, updated_at
FROM weekly_cycles WHERE chart_id = $1 AND status = 'completed' ORDER BY week_start_date DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var cycles []models.WeeklyCycle
	if err := r.db.SelectContext(ctx, &cycles, query, chartID); err != nil {
		return nil, 0, fmt.Errorf("list completed cycles: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM weekly_cycles WHERE chart_id = $1 AND status = 'completed'`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, chartID); err != nil {
		return nil, 0, fmt.Errorf("count completed cycles: %w", err)
	}
	return cycles, total, nil
}

// CountActions returns the number of weekly actions attached to a cycle.
func (r *CycleRepository) CountActions(ctx context.Context, cycleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM weekly_actions WHERE cycle_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, cycleID); err != nil {
		return 0, fmt.Errorf("count weekly actions: %w", err)
	}
	return count, nil
}

// InsertActions persists a sampled batch inside one transaction; either
// every row commits or none do.
func (r *CycleRepository) InsertActions(ctx context.Context, actions []models.WeeklyAction) error {
	if len(actions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin action batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO weekly_actions (id, cycle_id, cell_id, is_selected, completion_status, reflection_notes, score, completed_date, created_at, updated_at)
VALUES (:id, :cycle_id, :cell_id, :is_selected, :completion_status, :reflection_notes, :score, :completed_date, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range actions {
		if actions[i].ID == "" {
			actions[i].ID = uuid.NewString()
		}
		if actions[i].CreatedAt.IsZero() {
			actions[i].CreatedAt = now
		}
		actions[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, actions[i]); err != nil {
			return fmt.Errorf("insert weekly action: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit action batch: %w", err)
	}
	return nil
}

// FindActionByID returns one weekly action.
func (r *CycleRepository) FindActionByID(ctx context.Context, id string) (*models.WeeklyAction, error) {
	const query = `SELECT id, cycle_id, cell_id, is_selected, completion_status, reflection_notes, score, completed_date, created_at, updated_at
FROM weekly_actions WHERE id = $1 LIMIT 1`
	var action models.WeeklyAction
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find weekly action: %w", err)
	}
	return &action, nil
}

// UpdateActionStatus sets the completion status and, when provided,
// stamps the completed date. completedDate is never cleared here;
// stamping is one-directional.
func (r *CycleRepository) UpdateActionStatus(ctx context.Context, id string, status models.CompletionStatus, completedDate *time.Time) error {
	if completedDate != nil {
		const query = `UPDATE weekly_actions SET completion_status = $2, completed_date = $3, updated_at = $4 WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, query, id, status, *completedDate, time.Now().UTC()); err != nil {
			return fmt.Errorf("update action status: %w", err)
		}
		return nil
	}
	const query = `UPDATE weekly_actions SET completion_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update action status: %w", err)
	}
	return nil
}

// UpdateActionScore stores the 0-5 self assessment.
func (r *CycleRepository) UpdateActionScore(ctx context.Context, id string, score int) error {
	const query = `UPDATE weekly_actions SET score = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, time.Now().UTC()); err != nil {
		return fmt.Errorf("update action score: %w", err)
	}
	return nil
}

// UpdateActionNotes overwrites the reflection notes.
func (r *CycleRepository) UpdateActionNotes(ctx context.Context, id, notes string) error {
	const query = `UPDATE weekly_actions SET reflection_notes = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update action notes: %w", err)
	}
	return nil
}

// ListActionsWithCells returns the actions of a cycle joined with their
// source cells, oldest first.
func (r *CycleRepository) ListActionsWithCells(ctx context.Context, cycleID string) ([]models.WeeklyActionWithCell, error) {
	const query = `SELECT
	wa.id, wa.cycle_id, wa.cell_id, wa.is_selected, wa.completion_status, wa.reflection_notes, wa.score, wa.completed_date, wa.created_at, wa.updated_at,
	cc.content AS cell_content, cc.row_index AS cell_row_index, cc.col_index AS cell_col_index, cc.cell_type
FROM weekly_actions wa
JOIN chart_cells cc ON cc.id = wa.cell_id
WHERE wa.cycle_id = $1
ORDER BY wa.created_at ASC`
	var actions []models.WeeklyActionWithCell
	if err := r.db.SelectContext(ctx, &actions, query, cycleID); err != nil {
		return nil, fmt.Errorf("list weekly actions: %w", err)
	}
	return actions, nil
}
