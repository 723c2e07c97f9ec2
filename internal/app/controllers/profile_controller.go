package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// ProfileController serves volunteer and organization profiles
type ProfileController struct {
	profileService     services.ProfileService
	applicationService services.ApplicationService
	logger             zerolog.Logger
}

// NewProfileController creates a new ProfileController
func NewProfileController(profileService services.ProfileService, applicationService services.ApplicationService, logger zerolog.Logger) *ProfileController {
	return &ProfileController{
		profileService:     profileService,
		applicationService: applicationService,
		logger:             logger,
	}
}

// GetMyVolunteer returns the caller's volunteer profile
// @Summary Own volunteer profile
// @Tags profiles
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Volunteer}
// @Failure 403 {object} dto.ErrorResponse "Caller is not a volunteer"
// @Security BearerAuth
// @Router /volunteers/me [get]
func (c *ProfileController) GetMyVolunteer(ctx *gin.Context) {
	volunteer, err := c.profileService.GetMyVolunteer(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(volunteer, ""))
}

// UpdateMyVolunteer updates the caller's volunteer profile
// @Summary Update own volunteer profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body dto.UpdateVolunteerRequest true "Profile attributes"
// @Success 200 {object} dto.APIResponse{data=models.Volunteer}
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /volunteers/me [put]
func (c *ProfileController) UpdateMyVolunteer(ctx *gin.Context) {
	var req dto.UpdateVolunteerRequest
	if !bindJSON(ctx, &req) {
		return
	}

	volunteer, err := c.profileService.UpdateMyVolunteer(ctx.Request.Context(), middleware.UserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(volunteer, "Profile updated"))
}

// ListMyApplications lists the caller's applications with their events
// @Summary Own applications
// @Tags applications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse}
// @Security BearerAuth
// @Router /volunteers/me/applications [get]
func (c *ProfileController) ListMyApplications(ctx *gin.Context) {
	applications, err := c.applicationService.ListApplications(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ApplicationListResponse{Applications: applications}, ""))
}

// GetMyOrganization returns the caller's organization
// @Summary Own organization profile
// @Tags profiles
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Organization}
// @Failure 403 {object} dto.ErrorResponse "Caller is not an organization"
// @Security BearerAuth
// @Router /organizations/me [get]
func (c *ProfileController) GetMyOrganization(ctx *gin.Context) {
	org, err := c.profileService.GetMyOrganization(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(org, ""))
}

// UpdateMyOrganization updates the caller's organization
// @Summary Update own organization profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param request body dto.UpdateOrganizationRequest true "Organization attributes"
// @Success 200 {object} dto.APIResponse{data=models.Organization}
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /organizations/me [put]
func (c *ProfileController) UpdateMyOrganization(ctx *gin.Context) {
	var req dto.UpdateOrganizationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	org, err := c.profileService.UpdateMyOrganization(ctx.Request.Context(), middleware.UserID(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(org, "Profile updated"))
}

// GetOrganization returns a public organization profile
// @Summary Organization profile
// @Tags profiles
// @Produce json
// @Param id path int true "Organization ID"
// @Success 200 {object} dto.APIResponse{data=models.Organization}
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{id} [get]
func (c *ProfileController) GetOrganization(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	org, err := c.profileService.GetOrganization(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(org, ""))
}
