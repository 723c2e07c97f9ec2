package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/notifications"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// transitions lists the statuses reachable from each status. Anything else is rejected.
var transitions = map[models.EventStatus][]models.EventStatus{
	models.EventStatusDraft:     {models.EventStatusPublished, models.EventStatusCancelled},
	models.EventStatusPublished: {models.EventStatusOngoing, models.EventStatusCompleted, models.EventStatusCancelled},
	models.EventStatusOngoing:   {models.EventStatusCompleted, models.EventStatusCancelled},
	models.EventStatusCompleted: {models.EventStatusArchived},
}

// CanTransition reports whether an event may move from one status to another
func CanTransition(from, to models.EventStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sourcesOf returns every status that may move to `to`
func sourcesOf(to models.EventStatus) []models.EventStatus {
	var from []models.EventStatus
	for status, targets := range transitions {
		for _, next := range targets {
			if next == to {
				from = append(from, status)
			}
		}
	}
	return from
}

// LifecycleService defines the event lifecycle operations
type LifecycleService interface {
	Transition(ctx context.Context, userID, eventID int64, to models.EventStatus) (*models.Event, error)
	CompleteEvent(ctx context.Context, userID, eventID int64) (*models.Event, error)
	CompletionInfo(ctx context.Context, userID, eventID int64) (*dto.CompletionInfoResponse, error)
}

type lifecycleServiceImpl struct {
	authz        *appAuth.AuthorizationService
	events       EventStore
	applications ApplicationStore
	notifier     Notifier
	cache        cache.Cache
	metrics      *metrics.Recorder
	logger       zerolog.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	authz *appAuth.AuthorizationService,
	events EventStore,
	applications ApplicationStore,
	notifier Notifier,
	c cache.Cache,
	recorder *metrics.Recorder,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleServiceImpl{
		authz:        authz,
		events:       events,
		applications: applications,
		notifier:     notifier,
		cache:        c,
		metrics:      recorder,
		logger:       logger,
	}
}

func invalidTransition(from, to models.EventStatus) error {
	return apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot move event from %s to %s", from, to))
}

// Transition moves an event owned by the caller along the lifecycle.
// Completion has side effects and goes through CompleteEvent.
func (s *lifecycleServiceImpl) Transition(ctx context.Context, userID, eventID int64, to models.EventStatus) (*models.Event, error) {
	if to == models.EventStatusCompleted {
		return s.CompleteEvent(ctx, userID, eventID)
	}
	if !to.IsValid() {
		return nil, apperrors.NewBadRequestError("unknown event status")
	}

	event, err := s.authz.EventForOrganizer(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(event.Status, to) {
		return nil, invalidTransition(event.Status, to)
	}

	changed, err := s.events.TransitionStatus(ctx, eventID, sourcesOf(to), to)
	if err != nil {
		s.logger.Error().Err(err).Int64("eventID", eventID).Str("to", string(to)).Msg("Failed to transition event")
		return nil, fmt.Errorf("error updating event status: %w", err)
	}
	if !changed {
		// Another request moved it first
		return nil, invalidTransition(event.Status, to)
	}
	s.metrics.Transitions.WithLabelValues(string(to)).Inc()

	invalidate(ctx, s.cache, cache.EventTag(eventID), cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)

	updated, err := s.authz.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if to == models.EventStatusCancelled {
		s.notifyCancelled(ctx, updated)
	}

	s.logger.Info().
		Int64("eventID", eventID).
		Str("from", string(event.Status)).
		Str("to", string(to)).
		Msg("Event status changed")
	return updated, nil
}

func (s *lifecycleServiceImpl) notifyCancelled(ctx context.Context, event *models.Event) {
	applicants, err := s.applications.ListByEvent(ctx, event.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("eventID", event.ID).Msg("Could not load applicants to notify about cancellation")
		return
	}
	for _, a := range applicants {
		if a.Status == models.ApplicationStatusRejected {
			continue
		}
		invalidate(ctx, s.cache, cache.VolunteerTag(a.VolunteerID))
		s.notifier.Notify(ctx, notifications.EventCancelled(a.VolunteerUserID, event))
	}
}

// CompleteEvent completes the event and credits its participants atomically.
// Errors in order: NotFound, Forbidden, InvalidTransition.
func (s *lifecycleServiceImpl) CompleteEvent(ctx context.Context, userID, eventID int64) (*models.Event, error) {
	event, err := s.authz.EventForOrganizer(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(event.Status, models.EventStatusCompleted) {
		return nil, invalidTransition(event.Status, models.EventStatusCompleted)
	}

	summary, err := s.events.CompleteEvent(ctx, eventID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidTransition) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("eventID", eventID).Msg("Failed to complete event")
		return nil, fmt.Errorf("error completing event: %w", err)
	}
	s.metrics.Completions.Inc()
	s.metrics.Transitions.WithLabelValues(string(models.EventStatusCompleted)).Inc()

	invalidate(ctx, s.cache, cache.EventTag(eventID), cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)

	participants, err := s.applications.ListParticipants(ctx, eventID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("eventID", eventID).Msg("Could not load participants for rating invitations")
	}
	for _, p := range participants {
		invalidate(ctx, s.cache, cache.VolunteerTag(p.VolunteerID))
		s.notifier.Notify(ctx, notifications.RatingRequest(p.VolunteerUserID, summary.Event, false))
	}
	s.notifier.Notify(ctx, notifications.RatingRequest(summary.Event.OrganizerUserID, summary.Event, true))

	s.logger.Info().
		Int64("eventID", eventID).
		Int64("completedApplications", summary.CompletedApplications).
		Msg("Event completed")
	return summary.Event, nil
}

// CompletionInfo tells the caller whether they may complete or rate the event.
// Only the organizer and participants may ask.
func (s *lifecycleServiceImpl) CompletionInfo(ctx context.Context, userID, eventID int64) (*dto.CompletionInfoResponse, error) {
	event, err := s.authz.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	isOrganizer := event.IsOrganizer(userID)
	participation, err := s.authz.Participation(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !isOrganizer && participation == nil {
		return nil, apperrors.NewForbiddenError("only the organizer or participants can view completion details")
	}

	participants, err := s.applications.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error loading participants: %w", err)
	}

	return &dto.CompletionInfoResponse{
		Event:             event,
		CanComplete:       isOrganizer && CanTransition(event.Status, models.EventStatusCompleted),
		IsParticipant:     participation != nil,
		ParticipantsCount: len(participants),
		Application:       participation,
	}, nil
}
