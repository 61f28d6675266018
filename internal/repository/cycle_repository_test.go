package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/models"
)

func TestCycleRepositoryFindActiveByWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "chart_id", "week_start_date", "status"}).
		AddRow("cycle-1", "chart-1", weekStart, "planned")

	mock.ExpectQuery(regexp.QuoteMeta("status <> 'completed'")).
		WithArgs("chart-1", weekStart).
		WillReturnRows(rows)

	cycle, err := repo.FindActiveByWeek(context.Background(), "chart-1", weekStart)
	require.NoError(t, err)
	assert.Equal(t, "cycle-1", cycle.ID)
	assert.Equal(t, models.CycleStatusPlanned, cycle.Status)
}

func TestCycleRepositoryFindActiveByWeekMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	weekStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("chart-1", weekStart).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByWeek(context.Background(), "chart-1", weekStart)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCycleRepositoryInsertActionsCommitsBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	actions := []models.WeeklyAction{
		{CycleID: "cycle-1", CellID: "cell-1", IsSelected: true, CompletionStatus: models.CompletionNotStarted},
		{CycleID: "cycle-1", CellID: "cell-2", IsSelected: true, CompletionStatus: models.CompletionNotStarted},
	}
	err := repo.InsertActions(context.Background(), actions)
	require.NoError(t, err)
	assert.NotEmpty(t, actions[0].ID)
	assert.NotEmpty(t, actions[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepositoryInsertActionsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weekly_actions")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	actions := []models.WeeklyAction{
		{CycleID: "cycle-1", CellID: "cell-1", IsSelected: true, CompletionStatus: models.CompletionNotStarted},
		{CycleID: "cycle-1", CellID: "cell-2", IsSelected: true, CompletionStatus: models.CompletionNotStarted},
	}
	err := repo.InsertActions(context.Background(), actions)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepositoryInsertActionsEmptyBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	err := repo.InsertActions(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepositoryUpdateActionStatusWithCompletedDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	completed := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weekly_actions SET completion_status = $2, completed_date = $3")).
		WithArgs("action-1", models.CompletionCompleted, completed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateActionStatus(context.Background(), "action-1", models.CompletionCompleted, &completed)
	require.NoError(t, err)
}

func TestCycleRepositoryUpdateActionStatusWithoutDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE weekly_actions SET completion_status = $2, updated_at = $3")).
		WithArgs("action-1", models.CompletionInProgress, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateActionStatus(context.Background(), "action-1", models.CompletionInProgress, nil)
	require.NoError(t, err)
}

func TestCycleRepositoryUpdateActionStatusAcceptsEveryStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	statuses := []models.CompletionStatus{
		models.CompletionNotStarted,
		models.CompletionInProgress,
		models.CompletionCompleted,
		models.CompletionSkipped,
		models.CompletionPartial,
	}

	for _, status := range statuses {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE weekly_actions SET completion_status = $2, updated_at = $3")).
			WithArgs("action-1", status, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateActionStatus(context.Background(), "action-1", status, nil)
		require.NoError(t, err, "status %s", status)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

// The weekly_actions CHECK constraint must admit every status the model
// accepts, or valid PATCH requests die at the database boundary.
func TestWeeklyActionsSchemaAdmitsEveryCompletionStatus(t *testing.T) {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "003_create_cycles.sql"))
	require.NoError(t, err)

	statuses := []models.CompletionStatus{
		models.CompletionNotStarted,
		models.CompletionInProgress,
		models.CompletionCompleted,
		models.CompletionSkipped,
		models.CompletionPartial,
	}
	for _, status := range statuses {
		require.True(t, models.ValidCompletionStatus(status))
		assert.Contains(t, string(ddl), fmt.Sprintf("'%s'", status))
	}
}

func TestCycleRepositoryListCompleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "chart_id", "week_start_date", "status"}).
		AddRow("cycle-1", "chart-1", weekStart, "completed")

	mock.ExpectQuery(regexp.QuoteMeta("status = 'completed' ORDER BY week_start_date DESC")).
		WithArgs("chart-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM weekly_cycles")).
		WithArgs("chart-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cycles, total, err := repo.ListCompleted(context.Background(), "chart-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.CycleStatusCompleted, cycles[0].Status)
}

func TestCycleRepositoryListActionsWithCells(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCycleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "cycle_id", "cell_id", "completion_status", "cell_content", "cell_row_index", "cell_col_index", "cell_type"}).
		AddRow("action-1", "cycle-1", "cell-1", "not_started", "run 5km", 0, 0, "action")

	mock.ExpectQuery(regexp.QuoteMeta("JOIN chart_cells cc ON cc.id = wa.cell_id")).
		WithArgs("cycle-1").
		WillReturnRows(rows)

	actions, err := repo.ListActionsWithCells(context.Background(), "cycle-1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "run 5km", actions[0].CellContent)
	assert.Equal(t, models.CompletionNotStarted, actions[0].CompletionStatus)
}
