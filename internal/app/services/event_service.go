package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

// EventService defines the event catalogue operations
type EventService interface {
	CreateEvent(ctx context.Context, userID int64, req *dto.CreateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, userID, eventID int64) (*models.Event, error)
	ListEvents(ctx context.Context, userID int64, req *dto.EventFilterRequest, page, size int) ([]*models.Event, int64, error)
	UpdateEvent(ctx context.Context, userID, eventID int64, req *dto.UpdateEventRequest) (*models.Event, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type eventServiceImpl struct {
	authz      *appAuth.AuthorizationService
	events     EventStore
	categories CategoryStore
	cache      cache.Cache
	logger     zerolog.Logger
}

// NewEventService creates a new event catalogue service
func NewEventService(
	authz *appAuth.AuthorizationService,
	events EventStore,
	categories CategoryStore,
	c cache.Cache,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		authz:      authz,
		events:     events,
		categories: categories,
		cache:      c,
		logger:     logger,
	}
}

type eventFields struct {
	title, description string
	categoryID         *int64
	maxVolunteers      int
}

func (s *eventServiceImpl) validate(ctx context.Context, f eventFields, start, end time.Time) error {
	if strings.TrimSpace(f.title) == "" {
		return fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(f.description) == "" {
		return fmt.Errorf("%w: description cannot be empty", apperrors.ErrValidationFailed)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: endDate must be after startDate", apperrors.ErrValidationFailed)
	}
	if f.maxVolunteers < 1 {
		return fmt.Errorf("%w: maxVolunteers must be at least 1", apperrors.ErrValidationFailed)
	}
	if f.categoryID != nil {
		category, err := s.categories.GetCategoryByID(ctx, *f.categoryID)
		if err != nil {
			return fmt.Errorf("error loading category: %w", err)
		}
		if category == nil {
			return apperrors.NewBadRequestError("unknown category")
		}
	}
	return nil
}

// CreateEvent creates an event for the caller's organization, as a draft unless publish is set
func (s *eventServiceImpl) CreateEvent(ctx context.Context, userID int64, req *dto.CreateEventRequest) (*models.Event, error) {
	org, err := s.authz.RequireOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := eventFields{req.Title, req.Description, req.CategoryID, req.MaxVolunteers}
	if err := s.validate(ctx, fields, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	status := models.EventStatusDraft
	if req.Publish {
		status = models.EventStatusPublished
	}

	event := &models.Event{
		OrganizationID: org.ID,
		CategoryID:     req.CategoryID,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Location:       req.Location.ToModel(),
		MaxVolunteers:  req.MaxVolunteers,
		Skills:         helpers.NormalizeTags(req.Skills),
		Requirements:   helpers.NonNilStrings(req.Requirements),
		Benefits:       helpers.NonNilStrings(req.Benefits),
		Status:         status,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewBadRequestError("unknown category")
		}
		s.logger.Error().Err(err).Int64("organizationID", org.ID).Msg("Failed to create event")
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	invalidate(ctx, s.cache, cache.OrganizationTag(org.ID), cache.CatalogTag)
	s.logger.Info().Int64("eventID", event.ID).Str("status", string(status)).Msg("Event created")
	return s.authz.GetEvent(ctx, event.ID)
}

// GetEvent returns an event. Drafts are only visible to their organizer.
func (s *eventServiceImpl) GetEvent(ctx context.Context, userID, eventID int64) (*models.Event, error) {
	event, err := s.authz.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusDraft && !event.IsOrganizer(userID) {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

// ListEvents lists events, PUBLISHED by default. Drafts are listed only for the caller's own organization.
func (s *eventServiceImpl) ListEvents(ctx context.Context, userID int64, req *dto.EventFilterRequest, page, size int) ([]*models.Event, int64, error) {
	filter := models.EventFilter{
		Statuses:       []models.EventStatus{models.EventStatusPublished},
		CategoryID:     req.CategoryID,
		OrganizationID: req.OrganizationID,
		City:           strings.TrimSpace(req.City),
		Search:         strings.TrimSpace(req.Search),
	}
	if req.Status != "" {
		status := models.EventStatus(req.Status)
		if !status.IsValid() {
			return nil, 0, apperrors.NewBadRequestError("unknown event status")
		}
		filter.Statuses = []models.EventStatus{status}

		if status == models.EventStatusDraft {
			org, err := s.authz.RequireOrganization(ctx, userID)
			if err != nil {
				return nil, 0, err
			}
			filter.OrganizationID = &org.ID
		}
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	events, total, err := s.events.ListEvents(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	if events == nil {
		events = []*models.Event{}
	}
	return events, total, nil
}

// UpdateEvent edits a DRAFT or PUBLISHED event owned by the caller
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, userID, eventID int64, req *dto.UpdateEventRequest) (*models.Event, error) {
	event, err := s.authz.EventForOrganizer(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusDraft && event.Status != models.EventStatusPublished {
		return nil, apperrors.NewInvalidStateError("only draft or published events can be edited")
	}

	fields := eventFields{req.Title, req.Description, req.CategoryID, req.MaxVolunteers}
	if err := s.validate(ctx, fields, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if req.MaxVolunteers < event.CurrentVolunteers {
		return nil, fmt.Errorf("%w: maxVolunteers cannot be lower than the %d volunteers already registered",
			apperrors.ErrValidationFailed, event.CurrentVolunteers)
	}

	event.CategoryID = req.CategoryID
	event.Title = strings.TrimSpace(req.Title)
	event.Description = strings.TrimSpace(req.Description)
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	event.Location = req.Location.ToModel()
	event.MaxVolunteers = req.MaxVolunteers
	event.Skills = helpers.NormalizeTags(req.Skills)
	event.Requirements = helpers.NonNilStrings(req.Requirements)
	event.Benefits = helpers.NonNilStrings(req.Benefits)

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewBadRequestError("unknown category")
		}
		return nil, err
	}

	invalidate(ctx, s.cache, cache.EventTag(event.ID), cache.OrganizationTag(event.OrganizationID), cache.CatalogTag)
	return s.authz.GetEvent(ctx, event.ID)
}

// ListCategories returns all event categories
func (s *eventServiceImpl) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	return categories, nil
}
