package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

// EventController handles the event catalogue
type EventController struct {
	eventService services.EventService
	logger       zerolog.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, logger zerolog.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		logger:       logger,
	}
}

// CreateEvent creates an event owned by the caller's organization
// @Summary Create event
// @Description Creates a DRAFT event, or a PUBLISHED one when publish is true
// @Tags events
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Caller is not an organization"
// @Security BearerAuth
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.CreateEvent(ctx.Request.Context(), middleware.UserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("eventID", event.ID).Str("status", string(event.Status)).Msg("Event created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(event, "Event created"))
}

// ListEvents lists events with filters
// @Summary List events
// @Description Lists PUBLISHED events unless another status is requested. Organizations may list their own drafts.
// @Tags events
// @Produce json
// @Param status query string false "Event status"
// @Param categoryId query int false "Category ID"
// @Param organizationId query int false "Organization ID"
// @Param city query string false "City"
// @Param search query string false "Title or description contains"
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	var filter dto.EventFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	events, total, err := c.eventService.ListEvents(ctx.Request.Context(), middleware.UserID(ctx), &filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, ""))
}

// GetEvent returns one event
// @Summary Event detail
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.GetEvent(ctx.Request.Context(), middleware.UserID(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event, ""))
}

// UpdateEvent edits a DRAFT or PUBLISHED event
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body dto.UpdateEventRequest true "Event"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.UpdateEvent(ctx.Request.Context(), middleware.UserID(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event, "Event updated"))
}

// ListCategories lists the event categories
// @Summary List categories
// @Tags events
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Category}
// @Router /categories [get]
func (c *EventController) ListCategories(ctx *gin.Context) {
	categories, err := c.eventService.ListCategories(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(categories, ""))
}
