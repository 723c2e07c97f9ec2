package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// DashboardController serves the cached read models
type DashboardController struct {
	dashboardService      services.DashboardService
	recommendationService services.RecommendationService
	logger                zerolog.Logger
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService, recommendationService services.RecommendationService, logger zerolog.Logger) *DashboardController {
	return &DashboardController{
		dashboardService:      dashboardService,
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// VolunteerDashboard returns the caller's volunteer statistics
// @Summary Volunteer dashboard
// @Description Figures may be stale (stale=true) when the aggregate read timed out
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.VolunteerDashboard}
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/volunteer [get]
func (c *DashboardController) VolunteerDashboard(ctx *gin.Context) {
	d, err := c.dashboardService.VolunteerDashboard(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(d, ""))
}

// OrganizationDashboard returns the caller's organization statistics
// @Summary Organization dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.OrganizationDashboard}
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/organization [get]
func (c *DashboardController) OrganizationDashboard(ctx *gin.Context) {
	d, err := c.dashboardService.OrganizationDashboard(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(d, ""))
}

// Recommendations returns open events ranked for the caller
// @Summary Recommended events
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RecommendationListResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /recommendations [get]
func (c *DashboardController) Recommendations(ctx *gin.Context) {
	recs, err := c.recommendationService.Recommend(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(recs, ""))
}
