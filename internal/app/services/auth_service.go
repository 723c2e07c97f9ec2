package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/notifications"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/auth"
	"github.com/volunnet/volunnet/internal/pkg/email"
)

// AuthService handles account and session operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userID int64) error
	ForgotPassword(ctx context.Context, emailAddress string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	Me(ctx context.Context, userID int64) (*dto.MeResponse, error)
}

// AuthSettings holds the lifetimes of one-time tokens
type AuthSettings struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type authServiceImpl struct {
	users         UserStore
	refreshTokens RefreshTokenStore
	verifications OneTimeTokenStore
	resets        OneTimeTokenStore
	jwtService    *auth.JWTService
	mailer        email.EmailService
	notifier      Notifier
	settings      AuthSettings
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	refreshTokens RefreshTokenStore,
	verifications OneTimeTokenStore,
	resets OneTimeTokenStore,
	jwtService *auth.JWTService,
	mailer email.EmailService,
	notifier Notifier,
	settings AuthSettings,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		users:         users,
		refreshTokens: refreshTokens,
		verifications: verifications,
		resets:        resets,
		jwtService:    jwtService,
		mailer:        mailer,
		notifier:      notifier,
		settings:      settings,
		logger:        logger,
	}
}

func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Register creates an account with the profile matching its role and signs it in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
	}
	if !req.Role.IsValid() {
		return nil, apperrors.NewBadRequestError("role must be VOLUNTEER or ORGANIZATION")
	}

	address := normalizeEmail(req.Email)
	exists, err := s.users.EmailExists(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     address,
		Password:  hashedPassword,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		IsActive:  true,
	}

	var volunteer *models.Volunteer
	var org *models.Organization
	switch req.Role {
	case models.RoleVolunteer:
		volunteer = &models.Volunteer{Skills: []string{}, Interests: []string{}, Languages: []string{}}
	case models.RoleOrganization:
		name := strings.TrimSpace(req.OrganizationName)
		if name == "" {
			return nil, fmt.Errorf("%w: organizationName is required", apperrors.ErrValidationFailed)
		}
		org = &models.Organization{Name: name, FocusAreas: []string{}}
	}

	if err := s.users.CreateAccount(ctx, user, volunteer, org); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("account creation error: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("Account registered")

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not send verification email")
	}
	s.notifier.Notify(ctx, notifications.Welcome(user))

	return s.generateAuthResponse(ctx, user)
}

func (s *authServiceImpl) sendVerification(ctx context.Context, user *models.User) error {
	token := uuid.New().String()
	if err := s.verifications.CreateToken(ctx, user.ID, token, time.Now().Add(s.settings.VerificationTTL)); err != nil {
		return fmt.Errorf("error storing verification token: %w", err)
	}
	if s.mailer == nil {
		return nil
	}
	return s.mailer.SendVerificationEmail(ctx, user.Email, user.FullName(), token)
}

// Login authenticates a user with email and password
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not record last login")
	}

	return s.generateAuthResponse(ctx, user)
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.refreshTokens.GetToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			_ = s.refreshTokens.RevokeToken(ctx, refreshToken)
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	// Revoke before issuing so a refresh token can only be used once
	if err := s.refreshTokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateAuthResponse(ctx, user)
}

// Logout revokes the presented refresh token and every other session of the user
func (s *authServiceImpl) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken != "" {
		if err := s.refreshTokens.RevokeToken(ctx, refreshToken); err != nil {
			s.logger.Debug().Err(err).Msg("Refresh token already gone at logout")
		}
	}
	if userID <= 0 {
		return nil
	}
	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("error revoking tokens: %w", err)
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *authServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consume(ctx, s.verifications, token, apperrors.ErrInvalidEmailToken)
	if err != nil {
		return err
	}
	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("error marking user verified: %w", err)
	}
	s.logger.Info().Int64("userID", userID).Msg("Email verified")
	return nil
}

// ResendVerification issues a fresh verification link for an unverified account
func (s *authServiceImpl) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}
	if user.IsVerified {
		return apperrors.ErrEmailAlreadyVerified
	}
	return s.sendVerification(ctx, user)
}

// ForgotPassword emails a reset link. Unknown addresses succeed silently.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, emailAddress string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(emailAddress))
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if user == nil || !user.IsActive {
		s.logger.Debug().Msg("Password reset requested for unknown or inactive account")
		return nil
	}

	token := uuid.New().String()
	if err := s.resets.CreateToken(ctx, user.ID, token, time.Now().Add(s.settings.ResetTTL)); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}
	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.FullName(), token); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not send password reset email")
		}
	}
	return nil
}

// ResetPassword sets a new password and ends all sessions of the account
func (s *authServiceImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
	}

	userID, err := s.consume(ctx, s.resets, req.Token, apperrors.ErrTokenInvalid)
	if err != nil {
		return err
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Could not revoke sessions after password reset")
	}
	s.logger.Info().Int64("userID", userID).Msg("Password reset")
	return nil
}

// consume validates and burns a one-time token, returning its owner
func (s *authServiceImpl) consume(ctx context.Context, store OneTimeTokenStore, token string, invalid error) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, invalid
	}
	stored, err := store.GetToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("error loading token: %w", err)
	}
	if stored == nil || stored.IsUsed || stored.ExpiryDate.Before(time.Now()) {
		return 0, invalid
	}
	used, err := store.MarkUsed(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("error consuming token: %w", err)
	}
	if !used {
		// Consumed concurrently
		return 0, invalid
	}
	return stored.UserID, nil
}

// Me returns the current user with the profile of their role
func (s *authServiceImpl) Me(ctx context.Context, userID int64) (*dto.MeResponse, error) {
	if userID <= 0 {
		return nil, apperrors.ErrAuthRequired
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	resp := &dto.MeResponse{User: dto.NewUserResponse(user)}
	switch user.Role {
	case models.RoleVolunteer:
		resp.Volunteer, err = s.users.GetVolunteerByUserID(ctx, userID)
	case models.RoleOrganization:
		resp.Organization, err = s.users.GetOrganizationByUserID(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return resp, nil
}

// generateAuthResponse issues a token pair and stores the refresh token
func (s *authServiceImpl) generateAuthResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.refreshTokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(s.jwtService.AccessTokenTTL().Seconds()),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(s.jwtService.RefreshTokenTTL().Seconds()),
		},
		User: dto.NewUserResponse(user),
	}, nil
}
