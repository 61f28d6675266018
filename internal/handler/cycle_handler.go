package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/harada-api/internal/dto"
	"github.com/noah-isme/harada-api/internal/models"
	appErrors "github.com/noah-isme/harada-api/pkg/errors"
	"github.com/noah-isme/harada-api/pkg/response"
)

type cycleService interface {
	EnsureCurrentCycle(ctx context.Context, userID string, role models.UserRole, chartID string) (*models.WeeklyCycle, error)
	Start(ctx context.Context, userID string, role models.UserRole, cycleID string, req dto.StartCycleRequest) (*models.WeeklyCycle, error)
	Complete(ctx context.Context, userID string, role models.UserRole, cycleID string, req dto.CompleteCycleRequest) (*models.WeeklyCycle, error)
	ListCompleted(ctx context.Context, userID string, role models.UserRole, chartID string, filter dto.CycleHistoryFilter) ([]models.WeeklyCycle, *models.Pagination, error)
	ListActions(ctx context.Context, userID string, role models.UserRole, cycleID string) ([]models.WeeklyActionWithCell, error)
	UpdateActionStatus(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionStatusRequest) (*models.WeeklyAction, error)
	UpdateActionScore(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionScoreRequest) (*models.WeeklyAction, error)
	UpdateActionNotes(ctx context.Context, userID string, role models.UserRole, actionID string, req dto.UpdateActionNotesRequest) (*models.WeeklyAction, error)
}

// CycleHandler exposes weekly cycle and action endpoints.
type CycleHandler struct {
	service cycleService
}

// NewCycleHandler constructs the handler.
func NewCycleHandler(service cycleService) *CycleHandler {
	return &CycleHandler{service: service}
}

// Current godoc
// @Summary Get or create the current week's cycle
// @Tags Cycles
// @Produce json
// @Param chartId path string true "Chart ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /charts/{chartId}/cycles/current [get]
func (h *CycleHandler) Current(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cycle, err := h.service.EnsureCurrentCycle(c.Request.Context(), claims.UserID, claims.Role, c.Param("chartId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// History godoc
// @Summary List completed cycles
// @Description Completed review weeks for the calendar view, newest first
// @Tags Cycles
// @Produce json
// @Param chartId path string true "Chart ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /charts/{chartId}/cycles [get]
func (h *CycleHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := dto.CycleHistoryFilter{}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		filter.PageSize = pageSize
	}
	cycles, pagination, err := h.service.ListCompleted(c.Request.Context(), claims.UserID, claims.Role, c.Param("chartId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycles, pagination)
}

// Start godoc
// @Summary Start a planned cycle
// @Tags Cycles
// @Accept json
// @Produce json
// @Param cycleId path string true "Cycle ID"
// @Param payload body dto.StartCycleRequest true "Start journal"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cycles/{cycleId}/start [post]
func (h *CycleHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.StartCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid start payload"))
		return
	}
	cycle, err := h.service.Start(c.Request.Context(), claims.UserID, claims.Role, c.Param("cycleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// Complete godoc
// @Summary Complete an in-progress cycle
// @Tags Cycles
// @Accept json
// @Produce json
// @Param cycleId path string true "Cycle ID"
// @Param payload body dto.CompleteCycleRequest true "End review"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cycles/{cycleId}/complete [post]
func (h *CycleHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CompleteCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complete payload"))
		return
	}
	cycle, err := h.service.Complete(c.Request.Context(), claims.UserID, claims.Role, c.Param("cycleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// Actions godoc
// @Summary List the sampled actions of a cycle
// @Tags Cycles
// @Produce json
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /cycles/{cycleId}/actions [get]
func (h *CycleHandler) Actions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	actions, err := h.service.ListActions(c.Request.Context(), claims.UserID, claims.Role, c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// UpdateActionStatus godoc
// @Summary Update the completion status of an action
// @Tags Cycles
// @Accept json
// @Produce json
// @Param actionId path string true "Action ID"
// @Param payload body dto.UpdateActionStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /actions/{actionId}/status [patch]
func (h *CycleHandler) UpdateActionStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateActionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	action, err := h.service.UpdateActionStatus(c.Request.Context(), claims.UserID, claims.Role, c.Param("actionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}

// UpdateActionScore godoc
// @Summary Record the self assessment score of an action
// @Tags Cycles
// @Accept json
// @Produce json
// @Param actionId path string true "Action ID"
// @Param payload body dto.UpdateActionScoreRequest true "Score 0-5"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /actions/{actionId}/score [patch]
func (h *CycleHandler) UpdateActionScore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateActionScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	action, err := h.service.UpdateActionScore(c.Request.Context(), claims.UserID, claims.Role, c.Param("actionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}

// UpdateActionNotes godoc
// @Summary Overwrite the reflection notes of an action
// @Tags Cycles
// @Accept json
// @Produce json
// @Param actionId path string true "Action ID"
// @Param payload body dto.UpdateActionNotesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /actions/{actionId}/notes [patch]
func (h *CycleHandler) UpdateActionNotes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateActionNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notes payload"))
		return
	}
	action, err := h.service.UpdateActionNotes(c.Request.Context(), claims.UserID, claims.Role, c.Param("actionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}
