package services

import (
	"context"
	"errors"
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

// ApplicationService defines the event application operations
type ApplicationService interface {
	Apply(ctx context.Context, userID int64, req *dto.ApplyRequest) (*models.EventApplication, error)
	GetApplicationStatus(ctx context.Context, userID, eventID int64) (*dto.ApplicationStatusResponse, error)
	ListApplications(ctx context.Context, userID int64) ([]*models.ApplicationWithEvent, error)
	Withdraw(ctx context.Context, userID, eventID int64) error
	ListApplicants(ctx context.Context, userID, eventID int64) ([]*models.ApplicantView, error)
	Review(ctx context.Context, userID, eventID, applicationID int64, accept bool) (*models.EventApplication, error)
}

type applicationServiceImpl struct {
	authz        *appAuth.AuthorizationService
	applications ApplicationStore
	users        UserStore
	notifier     Notifier
	cache        cache.Cache
	metrics      *metrics.Recorder
	logger       zerolog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	authz *appAuth.AuthorizationService,
	applications ApplicationStore,
	users UserStore,
	notifier Notifier,
	c cache.Cache,
	recorder *metrics.Recorder,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationServiceImpl{
		authz:        authz,
		applications: applications,
		users:        users,
		notifier:     notifier,
		cache:        c,
		metrics:      recorder,
		logger:       logger,
	}
}

// Apply registers the volunteer for an event and takes one seat.
// Checks run in order: event exists, event open, not already applied, seat available.
func (s *applicationServiceImpl) Apply(ctx context.Context, userID int64, req *dto.ApplyRequest) (*models.EventApplication, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}

	event, err := s.authz.GetEvent(ctx, req.EventID)
	if err != nil {
		s.recordApply(err)
		return nil, err
	}
	if !event.Status.AcceptsApplications() {
		err := apperrors.NewInvalidStateError("event is not open for applications")
		s.recordApply(err)
		return nil, err
	}

	existing, err := s.applications.GetApplication(ctx, event.ID, volunteer.ID)
	if err != nil {
		s.recordApply(err)
		return nil, fmt.Errorf("error checking existing application: %w", err)
	}
	if existing != nil {
		s.recordApply(apperrors.ErrAlreadyApplied)
		return nil, apperrors.ErrAlreadyApplied
	}

	app := &models.EventApplication{
		EventID:         event.ID,
		VolunteerID:     volunteer.ID,
		Message:         req.Message,
		VolunteerUserID: userID,
	}
	if err := s.applications.CreateApplication(ctx, app); err != nil {
		s.recordApply(err)
		if apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrConflict, apperrors.ErrInvalidState) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("eventID", event.ID).Int64("volunteerID", volunteer.ID).Msg("Failed to create application")
		return nil, fmt.Errorf("error creating application: %w", err)
	}
	s.recordApply(nil)

	invalidate(ctx, s.cache,
		cache.EventTag(event.ID), cache.VolunteerTag(volunteer.ID),
		cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)

	s.notifier.Notify(ctx, notifications.ApplicationReceived(userID, event))
	s.notifier.Notify(ctx, notifications.NewApplicant(event, s.displayName(ctx, userID)))

	s.logger.Info().Int64("eventID", event.ID).Int64("applicationID", app.ID).Msg("Volunteer applied to event")
	return app, nil
}

func (s *applicationServiceImpl) recordApply(err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrEventFull):
		outcome = metrics.OutcomeFull
	case errors.Is(err, apperrors.ErrConflict):
		outcome = metrics.OutcomeConflict
	case apperrors.Is(err, apperrors.ErrInvalidState, apperrors.ErrResourceNotFound):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.Applications.WithLabelValues(outcome).Inc()
}

func (s *applicationServiceImpl) displayName(ctx context.Context, userID int64) string {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return "A volunteer"
	}
	return user.FullName()
}

// GetApplicationStatus reports whether the caller applied to the event
func (s *applicationServiceImpl) GetApplicationStatus(ctx context.Context, userID, eventID int64) (*dto.ApplicationStatusResponse, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if eventID <= 0 {
		return nil, apperrors.NewBadRequestError("eventId is required")
	}

	app, err := s.applications.GetApplication(ctx, eventID, volunteer.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading application: %w", err)
	}
	return &dto.ApplicationStatusResponse{HasApplied: app != nil, Application: app}, nil
}

// ListApplications returns the caller's applications with event summaries
func (s *applicationServiceImpl) ListApplications(ctx context.Context, userID int64) ([]*models.ApplicationWithEvent, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}

	apps, err := s.applications.ListByVolunteer(ctx, volunteer.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	if apps == nil {
		apps = []*models.ApplicationWithEvent{}
	}
	return apps, nil
}

// Withdraw removes the caller's pending application and frees its seat
func (s *applicationServiceImpl) Withdraw(ctx context.Context, userID, eventID int64) error {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return err
	}
	event, err := s.authz.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	app, err := s.applications.GetApplication(ctx, eventID, volunteer.ID)
	if err != nil {
		return fmt.Errorf("error loading application: %w", err)
	}
	if app == nil {
		return apperrors.ErrApplicationNotFound
	}
	if app.Status != models.ApplicationStatusPending {
		return apperrors.NewInvalidStateError("only pending applications can be withdrawn")
	}

	if err := s.applications.WithdrawApplication(ctx, app.ID); err != nil {
		return err
	}

	invalidate(ctx, s.cache,
		cache.EventTag(eventID), cache.VolunteerTag(volunteer.ID),
		cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)
	s.notifier.Notify(ctx, notifications.ApplicationWithdrawn(event, s.displayName(ctx, userID)))
	return nil
}

// ListApplicants returns every application of an event to its organizer
func (s *applicationServiceImpl) ListApplicants(ctx context.Context, userID, eventID int64) ([]*models.ApplicantView, error) {
	if _, err := s.authz.EventForOrganizer(ctx, eventID, userID); err != nil {
		return nil, err
	}

	applicants, err := s.applications.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing applicants: %w", err)
	}
	if applicants == nil {
		applicants = []*models.ApplicantView{}
	}
	return applicants, nil
}

// Review accepts or rejects an application while the event is still open.
// Rejection frees the seat.
func (s *applicationServiceImpl) Review(ctx context.Context, userID, eventID, applicationID int64, accept bool) (*models.EventApplication, error) {
	event, err := s.authz.EventForOrganizer(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !event.Status.AcceptsApplications() {
		return nil, apperrors.NewInvalidStateError("applications can only be reviewed while the event is published or ongoing")
	}

	app, err := s.applications.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("error loading application: %w", err)
	}
	if app == nil || app.EventID != eventID {
		return nil, apperrors.ErrApplicationNotFound
	}

	if accept {
		err = s.applications.AcceptApplication(ctx, app.ID)
	} else {
		err = s.applications.RejectApplication(ctx, app.ID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.applications.GetApplicationByID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("error reloading application: %w", err)
	}
	if updated == nil {
		return nil, apperrors.ErrApplicationNotFound
	}

	invalidate(ctx, s.cache,
		cache.EventTag(eventID), cache.VolunteerTag(app.VolunteerID),
		cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)
	s.notifier.Notify(ctx, notifications.ApplicationReviewed(app.VolunteerUserID, event, updated.Status))
	return updated, nil
}

// invalidate drops cached aggregates derived from the changed records
func invalidate(ctx context.Context, c cache.Cache, tags ...string) {
	if c == nil {
		return
	}
	c.InvalidateTag(ctx, tags...)
}
