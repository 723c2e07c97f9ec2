package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

// ProfileService defines the volunteer and organization profile operations
type ProfileService interface {
	GetMyVolunteer(ctx context.Context, userID int64) (*models.Volunteer, error)
	UpdateMyVolunteer(ctx context.Context, userID int64, req *dto.UpdateVolunteerRequest) (*models.Volunteer, error)
	GetMyOrganization(ctx context.Context, userID int64) (*models.Organization, error)
	UpdateMyOrganization(ctx context.Context, userID int64, req *dto.UpdateOrganizationRequest) (*models.Organization, error)
	GetOrganization(ctx context.Context, organizationID int64) (*models.Organization, error)
}

type profileServiceImpl struct {
	authz  *appAuth.AuthorizationService
	users  UserStore
	cache  cache.Cache
	logger zerolog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(authz *appAuth.AuthorizationService, users UserStore, c cache.Cache, logger zerolog.Logger) ProfileService {
	return &profileServiceImpl{
		authz:  authz,
		users:  users,
		cache:  c,
		logger: logger,
	}
}

// GetMyVolunteer returns the caller's volunteer profile
func (s *profileServiceImpl) GetMyVolunteer(ctx context.Context, userID int64) (*models.Volunteer, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	volunteer.User = user
	return volunteer, nil
}

// UpdateMyVolunteer replaces the mutable attributes of the caller's volunteer profile
func (s *profileServiceImpl) UpdateMyVolunteer(ctx context.Context, userID int64, req *dto.UpdateVolunteerRequest) (*models.Volunteer, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, fmt.Errorf("%w: firstName cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := s.users.UpdateName(ctx, userID, firstName, strings.TrimSpace(req.LastName)); err != nil {
		return nil, fmt.Errorf("error updating name: %w", err)
	}

	volunteer.Bio = strings.TrimSpace(req.Bio)
	volunteer.Skills = helpers.NormalizeTags(req.Skills)
	volunteer.Interests = helpers.NormalizeTags(req.Interests)
	volunteer.Languages = helpers.NormalizeTags(req.Languages)
	volunteer.Location = req.Location.ToModel()
	if err := s.users.UpdateVolunteer(ctx, volunteer); err != nil {
		s.logger.Error().Err(err).Int64("volunteerID", volunteer.ID).Msg("Failed to update volunteer profile")
		return nil, fmt.Errorf("error updating volunteer: %w", err)
	}

	invalidate(ctx, s.cache, cache.VolunteerTag(volunteer.ID))
	return s.GetMyVolunteer(ctx, userID)
}

// GetMyOrganization returns the caller's organization profile
func (s *profileServiceImpl) GetMyOrganization(ctx context.Context, userID int64) (*models.Organization, error) {
	return s.authz.RequireOrganization(ctx, userID)
}

// UpdateMyOrganization replaces the mutable attributes of the caller's organization
func (s *profileServiceImpl) UpdateMyOrganization(ctx context.Context, userID int64, req *dto.UpdateOrganizationRequest) (*models.Organization, error) {
	org, err := s.authz.RequireOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	org.Name = name
	org.Description = strings.TrimSpace(req.Description)
	org.Website = strings.TrimSpace(req.Website)
	org.FocusAreas = helpers.NormalizeTags(req.FocusAreas)
	org.Location = req.Location.ToModel()

	if err := s.users.UpdateOrganization(ctx, org); err != nil {
		s.logger.Error().Err(err).Int64("organizationID", org.ID).Msg("Failed to update organization profile")
		return nil, fmt.Errorf("error updating organization: %w", err)
	}

	invalidate(ctx, s.cache, cache.OrganizationTag(org.ID), cache.CatalogTag)
	return s.authz.RequireOrganization(ctx, userID)
}

// GetOrganization returns any organization's public profile
func (s *profileServiceImpl) GetOrganization(ctx context.Context, organizationID int64) (*models.Organization, error) {
	if organizationID <= 0 {
		return nil, apperrors.NewBadRequestError("invalid organization id")
	}
	org, err := s.users.GetOrganizationByID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("error loading organization: %w", err)
	}
	if org == nil {
		return nil, apperrors.ErrOrganizationNotFound
	}
	return org, nil
}
