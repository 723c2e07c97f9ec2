package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/repositories/user"
	"github.com/volunnet/volunnet/internal/db"
)

// UserRepository combines all user-related repositories
type UserRepository struct {
	db           *db.PostgresDB
	common       *user.Repository
	volunteer    *user.VolunteerRepository
	organization *user.OrganizationRepository
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{
		db:           database,
		common:       user.NewRepository(database),
		volunteer:    user.NewVolunteerRepository(database),
		organization: user.NewOrganizationRepository(database),
	}
}

// CreateAccount inserts the user, the profile matching its role and default
// notification preferences in one transaction
func (r *UserRepository) CreateAccount(ctx context.Context, u *models.User, volunteer *models.Volunteer, org *models.Organization) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		userID, err := r.common.InsertUser(ctx, tx, u)
		if err != nil {
			return err
		}

		switch {
		case volunteer != nil:
			volunteer.UserID = userID
			if err := r.volunteer.InsertVolunteer(ctx, tx, volunteer); err != nil {
				return err
			}
		case org != nil:
			org.UserID = userID
			if err := r.organization.InsertOrganization(ctx, tx, org); err != nil {
				return err
			}
		}

		pref := models.DefaultNotificationPreference(userID)
		_, err = tx.Exec(ctx, `
			INSERT INTO notification_preferences (user_id, email_enabled, push_enabled, sms_enabled)
			VALUES ($1, $2, $3, $4)`,
			pref.UserID, pref.EmailEnabled, pref.PushEnabled, pref.SMSEnabled)
		return err
	})
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.common.GetUserByEmail(ctx, email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.common.GetUserByID(ctx, id)
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.common.EmailExists(ctx, email)
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	return r.common.UpdateLastLogin(ctx, userID)
}

// MarkVerified flags the user's email as verified
func (r *UserRepository) MarkVerified(ctx context.Context, userID int64) error {
	return r.common.MarkVerified(ctx, userID)
}

// UpdateName changes the display name of a user
func (r *UserRepository) UpdateName(ctx context.Context, userID int64, firstName, lastName string) error {
	return r.common.UpdateName(ctx, userID, firstName, lastName)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.common.UpdatePassword(ctx, userID, passwordHash)
}

// GetVolunteerByUserID returns the volunteer profile of a user
func (r *UserRepository) GetVolunteerByUserID(ctx context.Context, userID int64) (*models.Volunteer, error) {
	return r.volunteer.GetVolunteerByUserID(ctx, userID)
}

// GetVolunteerByID returns a volunteer profile
func (r *UserRepository) GetVolunteerByID(ctx context.Context, id int64) (*models.Volunteer, error) {
	return r.volunteer.GetVolunteerByID(ctx, id)
}

// UpdateVolunteer stores the mutable volunteer attributes
func (r *UserRepository) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	return r.volunteer.UpdateVolunteer(ctx, v)
}

// GetOrganizationByUserID returns the organization owned by a user
func (r *UserRepository) GetOrganizationByUserID(ctx context.Context, userID int64) (*models.Organization, error) {
	return r.organization.GetOrganizationByUserID(ctx, userID)
}

// GetOrganizationByID returns an organization
func (r *UserRepository) GetOrganizationByID(ctx context.Context, id int64) (*models.Organization, error) {
	return r.organization.GetOrganizationByID(ctx, id)
}

// UpdateOrganization stores the mutable organization attributes
func (r *UserRepository) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	return r.organization.UpdateOrganization(ctx, o)
}
