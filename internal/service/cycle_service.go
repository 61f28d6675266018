package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/models"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
)

// DefaultSampleSize is the number of actions drawn for a week when the
// configuration does not override it.
const DefaultSampleSize = 5

type cycleStore interface {
	FindActiveByWeek(ctx context.Context, chartID string, weekStart time.Time) (*models.WeeklyCycle, error)
	FindByID(ctx context.Context, id string) (*models.WeeklyCycle, error)
	Create(ctx context.Context, cycle *models.WeeklyCycle) error
	MarkStarted(ctx context.Context, id, startJournal string) error
	MarkCompleted(ctx context.Context, id, endReview string) error
	ListCompleted(ctx context.Context, chartID string, page, pageSize int) ([]models.WeeklyCycle, int, error)
	CountActions(ctx context.Context, cycleID string) (int, error)
	InsertActions(ctx context.Context, actions []models.WeeklyAction) error
	FindActionByID(ctx context.Context, id string) (*models.WeeklyAction, error)
	UpdateActionStatus(ctx context.Context, id string, status models.CompletionStatus, completedDate *time.Time) error
	UpdateActionScore(ctx context.Context, id string, score int) error
	UpdateActionNotes(ctx context.Context, id, notes string) error
	ListActionsWithCells(ctx context.Context, cycleID string) ([]models.WeeklyActionWithCell, error)
}

type cycleChartStore interface {
	FindByID(ctx context.Context, id string) (*models.Chart, error)
	ListActionCells(ctx context.Context, chartID string) ([]models.ChartCell, error)
}

type cycleAuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CycleService drives the weekly review lifecycle: cycle creation per
// calendar week, action sampling, progress updates and the completed
// history feed.
type CycleService struct {
	store      cycleStore
	charts     cycleChartStore
	audit      cycleAuditStore
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	sampleSize int
	now        func() time.Time
}

// NewCycleService constructs a CycleService instance.
func NewCycleService(store cycleStore, charts cycleChartStore, audit cycleAuditStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, sampleSize int) *CycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &CycleService{
		store:      store,
		charts:     charts,
		audit:      audit,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		sampleSize: sampleSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// weekBounds returns the Monday 00:00 UTC on or before t and the Sunday
// ending that week. Sunday belongs to the week that started the previous
// Monday.
func weekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return start, end
}

// resolveChart loads a chart and checks access. Mutations require
// ownership; reads additionally admit admins.
func (s *CycleService) resolveChart(ctx context.Context, chartID, userID string, role models.UserRole, readOnly bool) (*models.Chart, error) {
	chart, err := s.charts.FindByID(ctx, chartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chart not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chart")
	}
	if chart.UserID != userID && !(readOnly && role == models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "chart does not belong to user")
	}
	return chart, nil
}

// resolveCycle loads a cycle and checks access via its owning chart.
func (s *CycleService) resolveCycle(ctx context.Context, cycleID, userID string, role models.UserRole, readOnly bool) (*models.WeeklyCycle, error) {
	cycle, err := s.store.FindByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	if _, err := s.resolveChart(ctx, cycle.ChartID, userID, role, readOnly); err != nil {
		return nil, err
	}
	return cycle, nil
}

// EnsureCurrentCycle returns the active cycle for the current calendar
// week, creating a planned one when none exists. Creation samples actions
// best-effort: a sampling failure or an empty chart leaves the cycle in
// place with zero actions.
func (s *CycleService) EnsureCurrentCycle(ctx context.Context, userID string, role models.UserRole, chartID string) (*models.WeeklyCycle, error) {
	chart, err := s.resolveChart(ctx, chartID, userID, role, false)
	if err != nil {
		return nil, err
	}

	weekStart, weekEnd := weekBounds(s.now())

	cycle, err := s.store.FindActiveByWeek(ctx, chart.ID, weekStart)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up current cycle")
	}

	cycle = &models.WeeklyCycle{
		ChartID:       chart.ID,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
		Status:        models.CycleStatusPlanned,
	}
	if err := s.store.Create(ctx, cycle); err != nil {
		// The partial unique index may have lost a race to a concurrent
		// request; re-read before giving up.
		if existing, findErr := s.store.FindActiveByWeek(ctx, chart.ID, weekStart); findErr == nil {
			return existing, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cycle")
	}

	if _, err := s.sampleActions(ctx, cycle); err != nil && !errors.Is(err, appErrors.ErrNoActionCells) {
		s.logger.Warn("action sampling failed on cycle creation",
			zap.String("cycle_id", cycle.ID), zap.Error(err))
	}

	return cycle, nil
}

// sampleActions draws up to sampleSize eligible action cells uniformly at
// random and stores them as one transactional batch. Returns the number of
// rows inserted; ErrNoActionCells when the chart has no eligible cells.
func (s *CycleService) sampleActions(ctx context.Context, cycle *models.WeeklyCycle) (int, error) {
	cells, err := s.charts.ListActionCells(ctx, cycle.ChartID)
	if err != nil {
		return 0, fmt.Errorf("list action cells: %w", err)
	}
	if len(cells) == 0 {
		return 0, appErrors.ErrNoActionCells
	}

	rand.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	count := s.sampleSize
	if len(cells) < count {
		count = len(cells)
	}

	actions := make([]models.WeeklyAction, 0, count)
	for _, cell := range cells[:count] {
		actions = append(actions, models.WeeklyAction{
			CycleID:          cycle.ID,
			CellID:           cell.ID,
			IsSelected:       true,
			CompletionStatus: models.CompletionNotStarted,
		})
	}
	if err := s.store.InsertActions(ctx, actions); err != nil {
		return 0, fmt.Errorf("insert sampled actions: %w", err)
	}
	return len(actions), nil
}

// Start transitions a planned cycle into in_progress, storing the start
// journal. Cycles with no sampled actions get a synchronous sample first;
// a chart without any filled action cells cannot start a week.
func (s *CycleService) Start(ctx context.Context, userID string, role models.UserRole, cycleID string, req dto.StartCycleRequest) (*models.WeeklyCycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start journal is required")
	}

	cycle, err := s.resolveCycle(ctx, cycleID, userID, role, false)
	if err != nil {
		return nil, err
	}

	switch cycle.Status {
	case models.CycleStatusPlanned:
	case models.CycleStatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrCycleCompleted, "cycle is already completed")
	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "cycle has already been started")
	}

	count, err := s.store.CountActions(ctx, cycle.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cycle actions")
	}
	if count == 0 {
		inserted, err := s.sampleActions(ctx, cycle)
		if err != nil {
			if errors.Is(err, appErrors.ErrNoActionCells) {
				return nil, appErrors.Clone(appErrors.ErrNoActionCells, "chart has no action cells to sample")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sample actions")
		}
		s.logger.Info("sampled actions for cycle start",
			zap.String("cycle_id", cycle.ID), zap.Int("count", inserted))
	}

	if err := s.store.MarkStarted(ctx, cycle.ID, req.StartJournal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start cycle")
	}
	cycle.Status = models.CycleStatusInProgress
	cycle.StartJournal = req.StartJournal

	s.invalidateChart(ctx, cycle.ChartID)
	s.recordCycleAudit(ctx, userID, cycle.ID, models.AuditActionCycleStart)

	return cycle, nil
}

// Complete transitions an in_progress cycle into completed, storing the
// end review. Completed cycles are terminal.
func (s *CycleService) Complete(ctx context.Context, userID string, role models.UserRole, cycleID string, req dto.CompleteCycleRequest) (*models.WeeklyCycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end review is required")
	}

	cycle, err := s.resolveCycle(ctx, cycleID, userID, role, false)
	if err != nil {
		return nil, err
	}

	switch cycle.Status {
	case models.CycleStatusInProgress:
	case models.CycleStatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrCycleCompleted, "cycle is already completed")
	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "cycle has not been started")
	}

	if err := s.store.MarkCompleted(ctx, cycle.ID, req.EndReview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete cycle")
	}
	cycle.Status = models.CycleStatusCompleted
	cycle.EndReview = req.EndReview

	s.invalidateChart(ctx, cycle.ChartID)
	s.recordCycleAudit(ctx, userID, cycle.ID, models.AuditActionCycleComplete)

	return cycle, nil
}

// ListCompleted returns the completed-cycle history of a chart for the
// calendar view, newest week first.
func (s *CycleService) ListCompleted(ctx context.Context, userID string, role models.UserRole, chartID string, filter dto.CycleHistoryFilter) ([]models.WeeklyCycle, *models.Pagination, error) {
	chart, err := s.resolveChart(ctx, chartID, userID, role, true)
	if err != nil {
		return nil, nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	start := time.Now()
	cycles, total, err := s.store.ListCompleted(ctx, chart.ID, filter.Page, filter.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completed cycles")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("cycle_history", time.Since(start))
	}
	if cycles == nil {
		cycles = []models.WeeklyCycle{}
	}

	return cycles, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListActions returns the sampled actions of a cycle joined with their
// source cells.
func (s *CycleService) ListActions(ctx context.Context, userID string, role models.UserRole, cycleID string) ([]models.WeeklyActionWithCell, error) {
	cycle, err := s.resolveCycle(ctx, cycleID, userID, role, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	actions, err := s.store.ListActionsWithCells(ctx, cycle.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cycle actions")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("cycle_actions", time.Since(start))
	}
	if actions == nil {
		actions = []models.WeeklyActionWithCell{}
	}
	return actions, nil
}

// resolveAction loads a weekly action and its cycle, enforcing ownership
// and rejecting mutations on completed cycles.
func (s *CycleService) resolveAction(ctx context.Context, actionID, userID string, role models.UserRole) (*models.WeeklyAction, *models.WeeklyCycle, error) {
	action, err := s.store.FindActionByID(ctx, actionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "action not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load action")
	}
	cycle, err := s.resolveCycle(ctx, action.CycleID, userID, role, false)
	if err != nil {
		return nil, nil, err
	}
	if cycle.Status == models.CycleStatusCompleted {
		return nil, nil, appErrors.Clone(appErrors.ErrCycleCompleted, "cycle is already completed")
	}
	return action, cycle, nil
}

// UpdateActionStatus changes the completion status of a sampled action.
// completed_date is stamped on the transition into completed and never
// cleared afterwards.
func (s *CycleService) UpdateActionStatus(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionStatusRequest) (*models.WeeklyAction, error) {
	if !models.ValidCompletionStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown completion status %q", req.Status))
	}

	action, cycle, err := s.resolveAction(ctx, actionID, userID, role)
	if err != nil {
		return nil, err
	}

	var completedDate *time.Time
	if req.Status == models.CompletionCompleted && action.CompletedDate == nil {
		today := s.now().Truncate(24 * time.Hour)
		completedDate = &today
	}

	if err := s.store.UpdateActionStatus(ctx, action.ID, req.Status, completedDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update action status")
	}
	action.CompletionStatus = req.Status
	if completedDate != nil {
		action.CompletedDate = completedDate
	}

	s.invalidateChart(ctx, cycle.ChartID)

	return action, nil
}

// UpdateActionScore records the 0-5 self assessment for an action.
func (s *CycleService) UpdateActionScore(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionScoreRequest) (*models.WeeklyAction, error) {
	if req.Score == nil || *req.Score < 0 || *req.Score > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 5")
	}

	action, cycle, err := s.resolveAction(ctx, actionID, userID, role)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateActionScore(ctx, action.ID, *req.Score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update action score")
	}
	action.Score = req.Score

	s.invalidateChart(ctx, cycle.ChartID)

	return action, nil
}

// UpdateActionNotes overwrites the reflection notes of an action.
func (s *CycleService) UpdateActionNotes(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionNotesRequest) (*models.WeeklyAction, error) {
	action, cycle, err := s.resolveAction(ctx, actionID, userID, role)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateActionNotes(ctx, action.ID, req.Notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update action notes")
	}
	action.ReflectionNotes = req.Notes

	s.invalidateChart(ctx, cycle.ChartID)

	return action, nil
}

func (s *CycleService) invalidateChart(ctx context.Context, chartID string) {
	if err := s.cache.Invalidate(ctx, chartCachePattern(chartID)); err != nil {
		s.logger.Warn("failed to invalidate chart cache", zap.String("chart_id", chartID), zap.Error(err))
	}
}

func (s *CycleService) recordCycleAudit(ctx context.Context, userID, cycleID, action string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "weekly_cycle",
		ResourceID: &cycleID,
	}); err != nil {
		s.logger.Warn("failed to record cycle audit log", zap.Error(err))
	}
}
