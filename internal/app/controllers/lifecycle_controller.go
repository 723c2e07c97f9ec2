package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// LifecycleController moves events through their status machine
type LifecycleController struct {
	lifecycleService services.LifecycleService
	logger           zerolog.Logger
}

// NewLifecycleController creates a new LifecycleController
func NewLifecycleController(lifecycleService services.LifecycleService, logger zerolog.Logger) *LifecycleController {
	return &LifecycleController{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

func (c *LifecycleController) transition(ctx *gin.Context, to models.EventStatus, message string) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.lifecycleService.Transition(ctx.Request.Context(), middleware.UserID(ctx), id, to)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("eventID", id).Str("status", string(to)).Msg("Event status changed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EventTransitionResponse{Message: message, Event: event}, message))
}

// Publish moves a DRAFT event to PUBLISHED
// @Summary Publish event
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventTransitionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/publish [post]
func (c *LifecycleController) Publish(ctx *gin.Context) {
	c.transition(ctx, models.EventStatusPublished, "Event published")
}

// Start moves a PUBLISHED event to ONGOING
// @Summary Start event
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventTransitionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /events/{id}/start [post]
func (c *LifecycleController) Start(ctx *gin.Context) {
	c.transition(ctx, models.EventStatusOngoing, "Event started")
}

// Cancel cancels a non-terminal event
// @Summary Cancel event
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventTransitionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /events/{id}/cancel [post]
func (c *LifecycleController) Cancel(ctx *gin.Context) {
	c.transition(ctx, models.EventStatusCancelled, "Event cancelled")
}

// Archive archives a COMPLETED event
// @Summary Archive event
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventTransitionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /events/{id}/archive [post]
func (c *LifecycleController) Archive(ctx *gin.Context) {
	c.transition(ctx, models.EventStatusArchived, "Event archived")
}

// CompleteEvent completes an event and its accepted applications
// @Summary Complete event
// @Description Marks the event COMPLETED, moves ACCEPTED applications to COMPLETED and credits participants
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventTransitionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/complete [post]
func (c *LifecycleController) CompleteEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.lifecycleService.CompleteEvent(ctx.Request.Context(), middleware.UserID(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("eventID", id).Msg("Event completed")
	const message = "Event completed successfully"
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EventTransitionResponse{Message: message, Event: event}, message))
}

// CompletionInfo describes the caller's standing on an event around completion
// @Summary Completion info
// @Tags lifecycle
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.CompletionInfoResponse}
// @Failure 403 {object} dto.ErrorResponse "Neither organizer nor participant"
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/complete [get]
func (c *LifecycleController) CompletionInfo(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	info, err := c.lifecycleService.CompletionInfo(ctx.Request.Context(), middleware.UserID(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(info, ""))
}
