package user

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "role",
	"is_verified", "is_active", "last_login_at", "created_at", "updated_at",
}

// Repository handles common user database operations
type Repository struct {
	db *db.PostgresDB
}

// NewRepository creates a new Repository
func NewRepository(database *db.PostgresDB) *Repository {
	return &Repository{db: database}
}

// InsertUser creates a user on q, which may be a transaction
func (r *Repository) InsertUser(ctx context.Context, q db.DBTX, user *models.User) (int64, error) {
	sql, args, err := psql.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role", "is_verified", "is_active").
		Values(user.Email, user.Password, user.FirstName, user.LastName, user.Role, user.IsVerified, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return user.ID, nil
}

func (r *Repository) getUser(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user := &models.User{}
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName, &user.Role,
		&user.IsVerified, &user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email, nil when absent
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

// GetUserByID retrieves a user by ID, nil when absent
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": id})
}

// EmailExists checks if an email already exists
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}

	return exists, nil
}

func (r *Repository) updateUser(ctx context.Context, id int64, set map[string]interface{}) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	set["updated_at"] = time.Now()
	sql, args, err := psql.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"last_login_at": time.Now()})
}

// MarkVerified flags the user's email as verified
func (r *Repository) MarkVerified(ctx context.Context, userID int64) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"is_verified": true})
}

// UpdateName changes the display name
func (r *Repository) UpdateName(ctx context.Context, userID int64, firstName, lastName string) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"first_name": firstName, "last_name": lastName})
}

// UpdatePassword stores a new password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"password": passwordHash})
}
