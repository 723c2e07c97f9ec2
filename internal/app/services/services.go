package services

import (
	"context"
	"time"

	"github.com/volunnet/volunnet/internal/app/models"
)

// Stores the services depend on. The repositories package implements them on
// PostgreSQL; tests use in-memory fakes.

// UserStore persists accounts and their role profiles
type UserStore interface {
	CreateAccount(ctx context.Context, u *models.User, volunteer *models.Volunteer, org *models.Organization) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	MarkVerified(ctx context.Context, userID int64) error
	UpdateName(ctx context.Context, userID int64, firstName, lastName string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	GetVolunteerByUserID(ctx context.Context, userID int64) (*models.Volunteer, error)
	GetVolunteerByID(ctx context.Context, id int64) (*models.Volunteer, error)
	UpdateVolunteer(ctx context.Context, v *models.Volunteer) error

	GetOrganizationByUserID(ctx context.Context, userID int64) (*models.Organization, error)
	GetOrganizationByID(ctx context.Context, id int64) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, o *models.Organization) error
}

// RefreshTokenStore persists refresh tokens
type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	CleanupExpiredTokens(ctx context.Context, revokedBefore time.Time) (int64, error)
}

// OneTimeTokenStore persists single-use tokens (email verification, password reset)
type OneTimeTokenStore interface {
	CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.VerificationToken, error)
	MarkUsed(ctx context.Context, token string) (bool, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// CategoryStore reads the event categories
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
}

// EventStore persists events and their lifecycle
type EventStore interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter, offset uint64, limit int) ([]*models.Event, int64, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	TransitionStatus(ctx context.Context, id int64, from []models.EventStatus, to models.EventStatus) (bool, error)
	CompleteEvent(ctx context.Context, id int64) (*models.CompletionSummary, error)
	ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListOpenEvents(ctx context.Context, after time.Time, limit int) ([]*models.Event, error)
}

// ApplicationStore persists event applications
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.EventApplication) error
	GetApplication(ctx context.Context, eventID, volunteerID int64) (*models.EventApplication, error)
	GetApplicationByID(ctx context.Context, id int64) (*models.EventApplication, error)
	ListByVolunteer(ctx context.Context, volunteerID int64) ([]*models.ApplicationWithEvent, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.ApplicantView, error)
	ListParticipants(ctx context.Context, eventID int64) ([]*models.EventApplication, error)
	AcceptApplication(ctx context.Context, id int64) error
	RejectApplication(ctx context.Context, id int64) error
	WithdrawApplication(ctx context.Context, id int64) error
	CountByStatusForVolunteer(ctx context.Context, volunteerID int64) (map[models.ApplicationStatus]int64, error)
}

// RatingStore persists directional ratings
type RatingStore interface {
	CreateRating(ctx context.Context, rating *models.EventRating) error
	ListRatingsByEvent(ctx context.Context, eventID int64) ([]*models.EventRating, error)
}

// InboxStore reads and updates a user's notifications
type InboxStore interface {
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, offset uint64, limit int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkActed(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	ExpireNotifications(ctx context.Context, now time.Time) (int64, error)
}

// PreferenceStore persists notification channel preferences
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID int64) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, p *models.NotificationPreference) error
}

// DashboardStore runs the aggregate queries behind dashboards
type DashboardStore interface {
	UpcomingEventsForVolunteer(ctx context.Context, volunteerID int64, now time.Time, limit int) ([]*models.Event, error)
	EventCountsByStatus(ctx context.Context, organizationID int64) (map[models.EventStatus]int64, error)
	ApplicationCountsForOrganization(ctx context.Context, organizationID int64) (pending, volunteers int64, err error)
}

// Notifier delivers notifications best-effort; it never fails the caller
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}
