package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

// NotificationService defines the inbox and preference operations
type NotificationService interface {
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, page, size int) (*dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkActed(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	GetPreferences(ctx context.Context, userID int64) (*models.NotificationPreference, error)
	UpdatePreferences(ctx context.Context, userID int64, req *dto.UpdatePreferencesRequest) (*models.NotificationPreference, error)
}

type notificationServiceImpl struct {
	inbox       InboxStore
	preferences PreferenceStore
	logger      zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(inbox InboxStore, preferences PreferenceStore, logger zerolog.Logger) NotificationService {
	return &notificationServiceImpl{
		inbox:       inbox,
		preferences: preferences,
		logger:      logger,
	}
}

// ListNotifications returns a page of the caller's notifications, newest first
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, page, size int) (*dto.NotificationListResponse, error) {
	if userID <= 0 {
		return nil, apperrors.ErrAuthRequired
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.inbox.ListNotifications(ctx, userID, unreadOnly, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		Pagination:    helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// UnreadCount returns the number of unread notifications of the caller
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, apperrors.ErrAuthRequired
	}
	count, err := s.inbox.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error counting notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	updated, err := s.inbox.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if !updated {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkActed records that the caller followed the notification's action
func (s *notificationServiceImpl) MarkActed(ctx context.Context, userID, notificationID int64) error {
	updated, err := s.inbox.MarkActed(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("error marking notification acted: %w", err)
	}
	if !updated {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, apperrors.ErrAuthRequired
	}
	n, err := s.inbox.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return n, nil
}

// GetPreferences returns the caller's channel preferences, or the defaults
func (s *notificationServiceImpl) GetPreferences(ctx context.Context, userID int64) (*models.NotificationPreference, error) {
	if userID <= 0 {
		return nil, apperrors.ErrAuthRequired
	}
	pref, err := s.preferences.GetPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading preferences: %w", err)
	}
	if pref == nil {
		pref = models.DefaultNotificationPreference(userID)
	}
	return pref, nil
}

// UpdatePreferences stores the caller's channel preferences. SMS needs a phone number.
func (s *notificationServiceImpl) UpdatePreferences(ctx context.Context, userID int64, req *dto.UpdatePreferencesRequest) (*models.NotificationPreference, error) {
	if userID <= 0 {
		return nil, apperrors.ErrAuthRequired
	}
	phone := req.Phone
	if phone != nil && *phone == "" {
		phone = nil
	}
	if req.SMSEnabled && phone == nil {
		return nil, fmt.Errorf("%w: phone is required to enable sms", apperrors.ErrValidationFailed)
	}

	pref := &models.NotificationPreference{
		UserID:       userID,
		EmailEnabled: req.EmailEnabled,
		PushEnabled:  req.PushEnabled,
		SMSEnabled:   req.SMSEnabled,
		Phone:        phone,
		UpdatedAt:    time.Now(),
	}
	if err := s.preferences.UpsertPreference(ctx, pref); err != nil {
		return nil, fmt.Errorf("error saving preferences: %w", err)
	}
	return pref, nil
}
