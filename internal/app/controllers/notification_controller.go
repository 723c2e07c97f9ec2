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

// NotificationController serves the caller's inbox and channel preferences
type NotificationController struct {
	notificationService services.NotificationService
	logger              zerolog.Logger
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications returns a page of the inbox, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Security BearerAuth
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	var filter dto.NotificationFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.notificationService.ListNotifications(ctx.Request.Context(), middleware.UserID(ctx), filter.Unread, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list, ""))
}

// UnreadCount returns the unread badge count
// @Summary Unread count
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountResponse}
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	count, err := c.notificationService.UnreadCount(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UnreadCountResponse{Count: count}, ""))
}

// MarkRead marks one notification read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.MarkRead(ctx.Request.Context(), middleware.UserID(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification marked as read"))
}

// MarkActed records that the caller acted on a notification
// @Summary Mark notification acted
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/act [post]
func (c *NotificationController) MarkActed(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.MarkActed(ctx.Request.Context(), middleware.UserID(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification marked as acted"))
}

// MarkAllRead marks the whole inbox read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.MarkAllReadResponse}
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	updated, err := c.notificationService.MarkAllRead(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MarkAllReadResponse{Updated: updated}, ""))
}

// GetPreferences returns the caller's delivery channels
// @Summary Notification preferences
// @Tags notifications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.NotificationPreference}
// @Security BearerAuth
// @Router /notifications/preferences [get]
func (c *NotificationController) GetPreferences(ctx *gin.Context) {
	pref, err := c.notificationService.GetPreferences(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(pref, ""))
}

// UpdatePreferences selects the optional delivery channels. The body is bound by middleware.ValidateRequest.
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body dto.UpdatePreferencesRequest true "Channels"
// @Success 200 {object} dto.APIResponse{data=models.NotificationPreference}
// @Failure 400 {object} dto.ErrorResponse "SMS without a phone number"
// @Security BearerAuth
// @Router /notifications/preferences [put]
func (c *NotificationController) UpdatePreferences(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.UpdatePreferencesRequest](ctx)
	if req == nil {
		req = &dto.UpdatePreferencesRequest{}
		if !bindJSON(ctx, req) {
			return
		}
	}

	pref, err := c.notificationService.UpdatePreferences(ctx.Request.Context(), middleware.UserID(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(pref, "Preferences updated"))
}
