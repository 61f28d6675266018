package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/models"
	"github.com/noah-isme/harada-api/internal/repository"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
	"github.com/noah-isme/harada-api/pkg/jobs"
	"github.com/noah-isme/harada-api/pkg/storage"
)

type exportJobRepoStub struct {
	jobs map[string]*models.ExportJob
	seq  int
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: make(map[string]*models.ExportJob)}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		r.seq++
		job.ID = fmt.Sprintf("job-%d", r.seq)
	}
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := r.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newExportFixtures(t *testing.T) (*ExportService, *cycleStoreStub, *cycleChartStub) {
	t.Helper()
	cycles := newCycleStoreStub()
	charts := newCycleChartStub()
	charts.charts["chart-1"] = &models.Chart{ID: "chart-1", UserID: "user-1", Title: "Marathon 2026"}

	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.AddDate(0, 0, 7*i)
		id := fmt.Sprintf("cycle-%d", i)
		cycles.cycles[id] = &models.WeeklyCycle{
			ID:            id,
			ChartID:       "chart-1",
			WeekStartDate: start,
			WeekEndDate:   start.AddDate(0, 0, 6),
			Status:        models.CycleStatusCompleted,
			StartJournal:  fmt.Sprintf("week %d plan", i),
			EndReview:     fmt.Sprintf("week %d review", i),
		}
	}

	cell := models.ChartCell{ID: "cell-1", ChartID: "chart-1", RowIndex: 0, ColIndex: 1, CellType: models.CellTypeAction, Content: "run intervals"}
	cycles.cells[cell.ID] = cell
	score := 4
	done := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	cycles.actions["action-1"] = &models.WeeklyAction{
		ID:               "action-1",
		CycleID:          "cycle-0",
		CellID:           cell.ID,
		IsSelected:       true,
		CompletionStatus: models.CompletionCompleted,
		ReflectionNotes:  "felt strong",
		Score:            &score,
		CompletedDate:    &done,
	}

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-signing-secret", time.Hour)
	exporter := NewExportService(cycles, charts, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
	return exporter, cycles, charts
}

func TestGenerateHistoryCSV(t *testing.T) {
	exporter, _, _ := newExportFixtures(t)

	job := &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeHistory,
		Params: models.ExportJobParams{ChartID: "chart-1", Format: models.ExportFormatCSV},
	}
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Contains(t, result.URL, "/api/v1/exports/download?token=")
	require.Equal(t, models.ExportFormatCSV, result.Format)

	jobID, relPath, _, err := exporter.ParseToken(result.Token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, result.RelativePath, relPath)

	file, err := exporter.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "Week Start")
	require.Contains(t, content, "2026-01-05")
	require.Contains(t, content, "week 2 review")
	require.Equal(t, 4, strings.Count(strings.TrimSpace(content), "\n")+1)
}

func TestGenerateWeeklyReviewPDF(t *testing.T) {
	exporter, _, _ := newExportFixtures(t)

	cycleID := "cycle-0"
	job := &models.ExportJob{
		ID:     "job-2",
		Type:   models.ExportTypeWeeklyReview,
		Params: models.ExportJobParams{ChartID: "chart-1", CycleID: &cycleID, Format: models.ExportFormatPDF},
	}
	result, err := exporter.Generate(context.Background(), job)
	require.NoError(t, err)

	file, err := exporter.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	header := make([]byte, 5)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	require.Equal(t, "%PDF-", string(header))
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	exporter, _, _ := newExportFixtures(t)

	job := &models.ExportJob{
		ID:     "job-3",
		Type:   models.ExportTypeHistory,
		Params: models.ExportJobParams{ChartID: "chart-1", Format: "xlsx"},
	}
	_, err := exporter.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestExportJobServiceCreateAndStatus(t *testing.T) {
	exporter, cycles, charts := newExportFixtures(t)
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	svc := NewExportJobService(repo, charts, cycles, queue, exporter, nil, ExportJobConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		ChartID: "chart-1",
		Type:    models.ExportTypeHistory,
		Format:  models.ExportFormatCSV,
	}, "user-1", models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)

	status, err := svc.GetStatus(context.Background(), resp.ID, "user-1", models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusQueued, status.Status)

	_, err = svc.GetStatus(context.Background(), resp.ID, "user-2", models.RoleUser)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(context.Background(), resp.ID, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
}

func TestExportJobServiceValidation(t *testing.T) {
	exporter, cycles, charts := newExportFixtures(t)
	repo := newExportJobRepoStub()
	svc := NewExportJobService(repo, charts, cycles, &queueStub{}, exporter, nil, ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		ChartID: "chart-1",
		Type:    models.ExportTypeWeeklyReview,
		Format:  models.ExportFormatCSV,
	}, "user-1", models.RoleUser)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), dto.ExportRequest{
		ChartID: "chart-1",
		Type:    models.ExportTypeHistory,
		Format:  models.ExportFormatCSV,
	}, "user-2", models.RoleUser)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerHandleFinishesJob(t *testing.T) {
	exporter, _, _ := newExportFixtures(t)
	repo := newExportJobRepoStub()
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		Type:   models.ExportTypeHistory,
		Params: models.ExportJobParams{ChartID: "chart-1", Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}))

	worker := NewExportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFinished, job.Status)
	require.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
}

func TestExportWorkerRequeuesUntilMaxRetries(t *testing.T) {
	exporter, _, charts := newExportFixtures(t)
	delete(charts.charts, "chart-1") // dataset build will fail
	repo := newExportJobRepoStub()
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		Type:   models.ExportTypeHistory,
		Params: models.ExportJobParams{ChartID: "chart-1", Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}))

	worker := NewExportWorker(repo, exporter, 2, nil)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusQueued, job.Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2}))
	job, err = repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
}
