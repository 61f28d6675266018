package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/harada-api/internal/models"
	"github.com/noah-isme/harada-api/pkg/export"
	"github.com/noah-isme/harada-api/pkg/storage"
)

type exportCycleStore interface {
	FindByID(ctx context.Context, id string) (*models.WeeklyCycle, error)
	ListCompleted(ctx context.Context, chartID string, page, pageSize int) ([]models.WeeklyCycle, int, error)
	ListActionsWithCells(ctx context.Context, cycleID string) ([]models.WeeklyActionWithCell, error)
}

type exportChartStore interface {
	FindByID(ctx context.Context, id string) (*models.Chart, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds review datasets and persists rendered files.
type ExportService struct {
	cycles  exportCycleStore
	charts  exportChartStore
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(cycles exportCycleStore, charts exportChartStore, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		cycles:  cycles,
		charts:  charts,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset described by the job and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/exports/download?token=%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	chartPart := sanitizeFilename(job.Params.ChartID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), chartPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeHistory:
		return s.buildHistoryDataset(ctx, job.Params)
	case models.ExportTypeWeeklyReview:
		return s.buildWeeklyReviewDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildHistoryDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	chart, err := s.charts.FindByID(ctx, params.ChartID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	const pageSize = 100
	var all []models.WeeklyCycle
	for page := 1; ; page++ {
		cycles, total, err := s.cycles.ListCompleted(ctx, chart.ID, page, pageSize)
		if err != nil {
			return export.Dataset{}, "", err
		}
		all = append(all, cycles...)
		if len(all) >= total || len(cycles) == 0 {
			break
		}
	}

	rows := make([]map[string]string, 0, len(all))
	for _, cycle := range all {
		rows = append(rows, map[string]string{
			"Week Start":    cycle.WeekStartDate.UTC().Format("2006-01-02"),
			"Week End":      cycle.WeekEndDate.UTC().Format("2006-01-02"),
			"Status":        string(cycle.Status),
			"Start Journal": cycle.StartJournal,
			"End Review":    cycle.EndReview,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Week Start", "Week End", "Status", "Start Journal", "End Review"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Review History %s", chart.Title)
	return dataset, title, nil
}

func (s *ExportService) buildWeeklyReviewDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	if params.CycleID == nil || *params.CycleID == "" {
		return export.Dataset{}, "", fmt.Errorf("cycle id missing for weekly review export")
	}
	cycle, err := s.cycles.FindByID(ctx, *params.CycleID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	actions, err := s.cycles.ListActionsWithCells(ctx, cycle.ID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := make([]map[string]string, 0, len(actions))
	for _, action := range actions {
		score := ""
		if action.Score != nil {
			score = fmt.Sprintf("%d", *action.Score)
		}
		completed := ""
		if action.CompletedDate != nil {
			completed = action.CompletedDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Action":    action.CellContent,
			"Position":  fmt.Sprintf("(%d,%d)", action.CellRowIndex, action.CellColIndex),
			"Status":    string(action.CompletionStatus),
			"Score":     score,
			"Completed": completed,
			"Notes":     action.ReflectionNotes,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Action", "Position", "Status", "Score", "Completed", "Notes"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Weekly Review %s", cycle.WeekStartDate.UTC().Format("2006-01-02"))
	return dataset, title, nil
}
