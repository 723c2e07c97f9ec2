package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

// oneTimeTokenTable stores single-use tokens: email verification and password reset share the layout
type oneTimeTokenTable struct {
	db      *db.PostgresDB
	table   string
	usedCol string
}

func (t *oneTimeTokenTable) create(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	ctx, cancel := t.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Insert(t.table).
		Columns("user_id", "token", "expiry_date").
		Values(userID, token, expiryDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err = t.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error creating token in %s: %w", t.table, err)
	}
	return nil
}

func (t *oneTimeTokenTable) get(ctx context.Context, token string) (*models.VerificationToken, error) {
	ctx, cancel := t.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("id", "token", "user_id", "expiry_date", t.usedCol, "created_at").
		From(t.table).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var vt models.VerificationToken
	err = t.db.Pool.QueryRow(ctx, sql, args...).Scan(&vt.ID, &vt.Token, &vt.UserID, &vt.ExpiryDate, &vt.IsUsed, &vt.CreatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving token from %s: %w", t.table, err)
	}
	return &vt, nil
}

// markUsed flips the used flag once; false means the token was already used or missing
func (t *oneTimeTokenTable) markUsed(ctx context.Context, token string) (bool, error) {
	ctx, cancel := t.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update(t.table).
		Set(t.usedCol, true).
		Where(squirrel.Eq{"token": token, t.usedCol: false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := t.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error marking token used in %s: %w", t.table, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (t *oneTimeTokenTable) deleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := t.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Delete(t.table).
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.Eq{t.usedCol: true},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := t.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired tokens from %s: %w", t.table, err)
	}
	return cmdTag.RowsAffected(), nil
}

// VerificationTokenRepository handles database operations for email verification tokens
type VerificationTokenRepository struct {
	tokens oneTimeTokenTable
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository
func NewVerificationTokenRepository(database *db.PostgresDB) *VerificationTokenRepository {
	return &VerificationTokenRepository{
		tokens: oneTimeTokenTable{db: database, table: "verification_tokens", usedCol: "is_used"},
	}
}

// CreateToken creates a new email verification token for a user
func (r *VerificationTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiryDate time.Time) error {
	return r.tokens.create(ctx, userID, token, expiryDate)
}

// GetToken returns the token or nil when it does not exist
func (r *VerificationTokenRepository) GetToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	return r.tokens.get(ctx, token)
}

// MarkUsed consumes the token
func (r *VerificationTokenRepository) MarkUsed(ctx context.Context, token string) (bool, error) {
	return r.tokens.markUsed(ctx, token)
}

// DeleteExpiredTokens removes expired and consumed tokens
func (r *VerificationTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.tokens.deleteExpired(ctx, now)
}
