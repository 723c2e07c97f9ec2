package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/notifications"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// RatingService defines the rating operations
type RatingService interface {
	Rate(ctx context.Context, userID, eventID int64, req *dto.RateRequest) (*models.EventRating, error)
	ListRatings(ctx context.Context, eventID int64) ([]*models.EventRating, error)
}

type ratingServiceImpl struct {
	authz        *appAuth.AuthorizationService
	applications ApplicationStore
	ratings      RatingStore
	notifier     Notifier
	cache        cache.Cache
	metrics      *metrics.Recorder
	logger       zerolog.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(
	authz *appAuth.AuthorizationService,
	applications ApplicationStore,
	ratings RatingStore,
	notifier Notifier,
	c cache.Cache,
	recorder *metrics.Recorder,
	logger zerolog.Logger,
) RatingService {
	return &ratingServiceImpl{
		authz:        authz,
		applications: applications,
		ratings:      ratings,
		notifier:     notifier,
		cache:        c,
		metrics:      recorder,
		logger:       logger,
	}
}

func validateRateRequest(req *dto.RateRequest) error {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return apperrors.NewBadRequestError(fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	if !req.Type.IsValid() {
		return apperrors.NewBadRequestError("type must be ORGANIZATION_TO_VOLUNTEER or VOLUNTEER_TO_ORGANIZATION")
	}
	if req.VolunteerID <= 0 {
		return apperrors.NewBadRequestError("volunteerId is required")
	}
	return nil
}

// Rate records one directional rating between the organizer and a participant of a completed event.
// Checks run in order: arguments, event exists, event completed, volunteer participated, caller
// authorized for the direction, no earlier rating in that direction.
func (s *ratingServiceImpl) Rate(ctx context.Context, userID, eventID int64, req *dto.RateRequest) (*models.EventRating, error) {
	if err := validateRateRequest(req); err != nil {
		return nil, err
	}

	event, err := s.authz.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusCompleted {
		return nil, apperrors.NewInvalidStateError("event must be completed before rating")
	}

	app, err := s.applications.GetApplication(ctx, eventID, req.VolunteerID)
	if err != nil {
		return nil, fmt.Errorf("error loading application: %w", err)
	}
	if app == nil || !app.Status.Participated() {
		return nil, apperrors.NewInvalidStateError("volunteer did not participate in this event")
	}

	switch req.Type {
	case models.RatingVolunteerToOrganization:
		if app.VolunteerUserID != userID {
			return nil, apperrors.NewForbiddenError("only the participating volunteer can rate the organization")
		}
	case models.RatingOrganizationToVolunteer:
		if !event.IsOrganizer(userID) {
			return nil, apperrors.NewForbiddenError("only the event organizer can rate volunteers")
		}
	}

	rating := &models.EventRating{
		ApplicationID: app.ID,
		EventID:       eventID,
		VolunteerID:   req.VolunteerID,
		Direction:     req.Type,
		RaterUserID:   userID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	}
	if err := s.ratings.CreateRating(ctx, rating); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("eventID", eventID).Int64("applicationID", app.ID).Msg("Failed to store rating")
		return nil, fmt.Errorf("error storing rating: %w", err)
	}
	s.metrics.Ratings.WithLabelValues(string(req.Type)).Inc()

	invalidate(ctx, s.cache,
		cache.EventTag(eventID), cache.VolunteerTag(req.VolunteerID), cache.OrganizationTag(event.OrganizationID))

	ratedUserID := app.VolunteerUserID
	if req.Type == models.RatingVolunteerToOrganization {
		ratedUserID = event.OrganizerUserID
	}
	s.notifier.Notify(ctx, notifications.RatingReceived(ratedUserID, event, req.Rating))

	return rating, nil
}

// ListRatings returns the ratings recorded for an event
func (s *ratingServiceImpl) ListRatings(ctx context.Context, eventID int64) ([]*models.EventRating, error) {
	if _, err := s.authz.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListRatingsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing ratings: %w", err)
	}
	if ratings == nil {
		ratings = []*models.EventRating{}
	}
	return ratings, nil
}
