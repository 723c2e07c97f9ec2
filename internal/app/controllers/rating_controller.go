package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// RatingController handles post-event ratings
type RatingController struct {
	ratingService services.RatingService
	logger        zerolog.Logger
}

// NewRatingController creates a new RatingController
func NewRatingController(ratingService services.RatingService, logger zerolog.Logger) *RatingController {
	return &RatingController{
		ratingService: ratingService,
		logger:        logger,
	}
}

// Rate records a rating in one direction between the organizer and a participant
// @Summary Rate after completion
// @Tags ratings
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body dto.RateRequest true "Rating"
// @Success 200 {object} dto.APIResponse{data=dto.RateResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid rating, event not completed or already rated"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/rate [post]
func (c *RatingController) Rate(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.RateRequest
	if !bindJSON(ctx, &req) {
		return
	}

	rating, err := c.ratingService.Rate(ctx.Request.Context(), middleware.UserID(ctx), eventID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	const message = "Rating submitted successfully"
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RateResponse{
		Message: message,
		Rating:  dto.RatingValue{Rating: rating.Rating, Comment: rating.Comment},
	}, message))
}

// ListRatings returns the ratings of an event
// @Summary Event ratings
// @Tags ratings
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=[]models.EventRating}
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/rate [get]
func (c *RatingController) ListRatings(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	ratings, err := c.ratingService.ListRatings(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(ratings, ""))
}
