package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestChartRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title"}).
		AddRow("chart-1", "user-1", "My Harada Chart")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, title, created_at, updated_at FROM charts WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(rows)

	chart, err := repo.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "chart-1", chart.ID)
	assert.Equal(t, "My Harada Chart", chart.Title)
}

func TestChartRepositoryFindByUserIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("user-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserID(context.Background(), "user-99")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestChartRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO charts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	chart := &models.Chart{UserID: "user-1", Title: models.DefaultChartTitle}
	err := repo.Create(context.Background(), chart)
	require.NoError(t, err)
	assert.NotEmpty(t, chart.ID)
	assert.False(t, chart.CreatedAt.IsZero())
}

func TestChartRepositoryUpsertCell(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chart_cells")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cell := &models.ChartCell{
		ChartID:  "chart-1",
		RowIndex: 0,
		ColIndex: 0,
		CellType: models.CellTypeAction,
		Content:  "run 5km",
	}
	err := repo.UpsertCell(context.Background(), cell)
	require.NoError(t, err)
	assert.NotEmpty(t, cell.ID)
}

func TestChartRepositoryListActionCells(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	rows := sqlmock.NewRows([]string{"id", "chart_id", "row_index", "col_index", "cell_type", "content"}).
		AddRow("cell-1", "chart-1", 0, 0, "action", "run 5km").
		AddRow("cell-2", "chart-1", 0, 1, "action", "sleep early")

	mock.ExpectQuery(regexp.QuoteMeta("cell_type = 'action' AND content <> ''")).
		WithArgs("chart-1").
		WillReturnRows(rows)

	cells, err := repo.ListActionCells(context.Background(), "chart-1")
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, models.CellTypeAction, cells[0].CellType)
}

func TestChartRepositoryDeleteCell(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chart_cells WHERE chart_id = $1 AND row_index = $2 AND col_index = $3")).
		WithArgs("chart-1", 2, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteCell(context.Background(), "chart-1", 2, 7)
	require.NoError(t, err)
}
