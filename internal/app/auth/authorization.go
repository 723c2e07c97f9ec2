package auth

import (
	"context"
	"fmt"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
)

// ProfileLookup resolves the role profiles owned by a user
type ProfileLookup interface {
	GetVolunteerByUserID(ctx context.Context, userID int64) (*models.Volunteer, error)
	GetOrganizationByUserID(ctx context.Context, userID int64) (*models.Organization, error)
}

// EventLookup loads an event with its organizer
type EventLookup interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
}

// ApplicationLookup loads one volunteer's application to an event
type ApplicationLookup interface {
	GetApplication(ctx context.Context, eventID, volunteerID int64) (*models.EventApplication, error)
}

// AuthorizationService answers "may this caller do that" questions for the service layer
type AuthorizationService struct {
	profiles     ProfileLookup
	events       EventLookup
	applications ApplicationLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(profiles ProfileLookup, events EventLookup, applications ApplicationLookup) *AuthorizationService {
	return &AuthorizationService{
		profiles:     profiles,
		events:       events,
		applications: applications,
	}
}

// RequireVolunteer returns the caller's volunteer profile or Forbidden
func (s *AuthorizationService) RequireVolunteer(ctx context.Context, userID int64) (*models.Volunteer, error) {
	if userID <= 0 {
		return nil, apperrors.NewAuthRequiredError("authentication required")
	}
	volunteer, err := s.profiles.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading volunteer profile: %w", err)
	}
	if volunteer == nil {
		return nil, apperrors.NewForbiddenError("only volunteers can perform this action")
	}
	return volunteer, nil
}

// RequireOrganization returns the caller's organization profile or Forbidden
func (s *AuthorizationService) RequireOrganization(ctx context.Context, userID int64) (*models.Organization, error) {
	if userID <= 0 {
		return nil, apperrors.NewAuthRequiredError("authentication required")
	}
	org, err := s.profiles.GetOrganizationByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading organization profile: %w", err)
	}
	if org == nil {
		return nil, apperrors.NewForbiddenError("only organizations can perform this action")
	}
	return org, nil
}

// GetEvent loads an event or returns ErrEventNotFound
func (s *AuthorizationService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	if eventID <= 0 {
		return nil, apperrors.ErrEventNotFound
	}
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error loading event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

// EventForOrganizer loads an event and checks the caller organizes it.
// NotFound takes precedence over Forbidden.
func (s *AuthorizationService) EventForOrganizer(ctx context.Context, eventID, userID int64) (*models.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOrganizer(userID) {
		return nil, apperrors.NewForbiddenError("only the event organizer can perform this action")
	}
	return event, nil
}

// Participation returns the caller's application to the event when it counts as
// participation (ACCEPTED or COMPLETED), or nil.
func (s *AuthorizationService) Participation(ctx context.Context, eventID, userID int64) (*models.EventApplication, error) {
	volunteer, err := s.profiles.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading volunteer profile: %w", err)
	}
	if volunteer == nil {
		return nil, nil
	}

	app, err := s.applications.GetApplication(ctx, eventID, volunteer.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading application: %w", err)
	}
	if app == nil || !app.Status.Participated() {
		return nil, nil
	}
	return app, nil
}
