package repositories

import (
	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/db"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository               *UserRepository
	TokenRepository              *TokenRepository
	VerificationTokenRepository  *VerificationTokenRepository
	PasswordResetTokenRepository *PasswordResetTokenRepository
	CategoryRepository           *CategoryRepository
	EventRepository              *EventRepository
	ApplicationRepository        *ApplicationRepository
	RatingRepository             *RatingRepository
	NotificationRepository       *NotificationRepository
	PreferenceRepository         *PreferenceRepository
	DashboardRepository          *DashboardRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:               NewUserRepository(database),
		TokenRepository:              NewTokenRepository(database),
		VerificationTokenRepository:  NewVerificationTokenRepository(database),
		PasswordResetTokenRepository: NewPasswordResetTokenRepository(database),
		CategoryRepository:           NewCategoryRepository(database),
		EventRepository:              NewEventRepository(database),
		ApplicationRepository:        NewApplicationRepository(database),
		RatingRepository:             NewRatingRepository(database),
		NotificationRepository:       NewNotificationRepository(database),
		PreferenceRepository:         NewPreferenceRepository(database),
		DashboardRepository:          NewDashboardRepository(database),
	}
}
