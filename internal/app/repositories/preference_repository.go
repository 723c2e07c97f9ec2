package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

// PreferenceRepository stores notification channel preferences
type PreferenceRepository struct {
	db *db.PostgresDB
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(database *db.PostgresDB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// GetPreference returns the user's preferences, nil when none are stored
func (r *PreferenceRepository) GetPreference(ctx context.Context, userID int64) (*models.NotificationPreference, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var p models.NotificationPreference
	err := r.db.Pool.QueryRow(ctx, `
		SELECT user_id, email_enabled, push_enabled, sms_enabled, phone, updated_at
		FROM notification_preferences WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.EmailEnabled, &p.PushEnabled, &p.SMSEnabled, &p.Phone, &p.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving preferences: %w", err)
	}
	return &p, nil
}

// UpsertPreference creates or replaces the user's preferences
func (r *PreferenceRepository) UpsertPreference(ctx context.Context, p *models.NotificationPreference) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Insert("notification_preferences").
		Columns("user_id", "email_enabled", "push_enabled", "sms_enabled", "phone", "updated_at").
		Values(p.UserID, p.EmailEnabled, p.PushEnabled, p.SMSEnabled, p.Phone, squirrel.Expr("NOW()")).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			phone = EXCLUDED.phone,
			updated_at = NOW()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		return fmt.Errorf("error saving preferences: %w", err)
	}
	return nil
}
