package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// ApplicationController handles volunteer applications and their review
type ApplicationController struct {
	applicationService services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		logger:             logger,
	}
}

// Apply applies the caller to an event
// @Summary Apply to event
// @Description Creates a PENDING application and takes one seat. Fails when the event is full or the caller already applied.
// @Tags applications
// @Accept json
// @Produce json
// @Param request body dto.ApplyRequest true "Event to apply to"
// @Success 200 {object} dto.APIResponse{data=dto.ApplyResponse}
// @Failure 400 {object} dto.ErrorResponse "Already applied, event full or not open"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/apply [post]
func (c *ApplicationController) Apply(ctx *gin.Context) {
	var req dto.ApplyRequest
	if !bindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.Apply(ctx.Request.Context(), middleware.UserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	const message = "Application submitted successfully"
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ApplyResponse{
		Message:     message,
		Application: dto.NewApplicationSummary(app),
	}, message))
}

// GetApplicationStatus tells whether the caller applied to an event
// @Summary Application status
// @Tags applications
// @Produce json
// @Param eventId query int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationStatusResponse}
// @Security BearerAuth
// @Router /events/apply [get]
func (c *ApplicationController) GetApplicationStatus(ctx *gin.Context) {
	eventID, ok := queryID(ctx, "eventId")
	if !ok {
		return
	}

	status, err := c.applicationService.GetApplicationStatus(ctx.Request.Context(), middleware.UserID(ctx), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status, ""))
}

// Withdraw withdraws the caller's PENDING application and frees its seat
// @Summary Withdraw application
// @Tags applications
// @Produce json
// @Param eventId query int true "Event ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Application is no longer pending"
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/apply [delete]
func (c *ApplicationController) Withdraw(ctx *gin.Context) {
	eventID, ok := queryID(ctx, "eventId")
	if !ok {
		return
	}

	if err := c.applicationService.Withdraw(ctx.Request.Context(), middleware.UserID(ctx), eventID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Application withdrawn"))
}

// ListApplicants lists the applications of an event for its organizer
// @Summary Event applicants
// @Tags applications
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicantListResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/applications [get]
func (c *ApplicationController) ListApplicants(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	applicants, err := c.applicationService.ListApplicants(ctx.Request.Context(), middleware.UserID(ctx), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ApplicantListResponse{Applications: applicants}, ""))
}

func (c *ApplicationController) review(ctx *gin.Context, accept bool) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	applicationID, ok := pathID(ctx, "applicationId")
	if !ok {
		return
	}

	app, err := c.applicationService.Review(ctx.Request.Context(), middleware.UserID(ctx), eventID, applicationID, accept)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Application rejected"
	if accept {
		message = "Application accepted"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ReviewApplicationResponse{Message: message, Application: app}, message))
}

// Accept accepts a PENDING application
// @Summary Accept application
// @Tags applications
// @Produce json
// @Param id path int true "Event ID"
// @Param applicationId path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Application is not pending"
// @Security BearerAuth
// @Router /events/{id}/applications/{applicationId}/accept [post]
func (c *ApplicationController) Accept(ctx *gin.Context) {
	c.review(ctx, true)
}

// Reject rejects a PENDING or ACCEPTED application and frees its seat
// @Summary Reject application
// @Tags applications
// @Produce json
// @Param id path int true "Event ID"
// @Param applicationId path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Application already finalized"
// @Security BearerAuth
// @Router /events/{id}/applications/{applicationId}/reject [post]
func (c *ApplicationController) Reject(ctx *gin.Context) {
	c.review(ctx, false)
}
