package repositories

import (
	"context"
	"time"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
)

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	tokens oneTimeTokenTable
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(database *db.PostgresDB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{
		tokens: oneTimeTokenTable{db: database, table: "password_reset_tokens", usedCol: "used"},
	}
}

// CreateToken stores a new password reset token
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	return r.tokens.create(ctx, userID, token, expiryDate)
}

// GetToken returns the token or nil when it does not exist
func (r *PasswordResetTokenRepository) GetToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	return r.tokens.get(ctx, token)
}

// MarkUsed consumes the token so it cannot be replayed
func (r *PasswordResetTokenRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	return r.tokens.markUsed(ctx, token)
}

// DeleteExpiredTokens removes expired and consumed tokens
func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.tokens.deleteExpired(ctx, now)
}
