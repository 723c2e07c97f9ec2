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

var notificationColumns = []string{
	"id", "user_id", "category", "subcategory", "title", "message", "priority", "status",
	"action_url", "event_id", "expires_at", "read_at", "acted_at", "created_at",
}

var unreadStatuses = []string{
	string(models.NotificationStatusPending),
	string(models.NotificationStatusSent),
	string(models.NotificationStatusDelivered),
}

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db *db.PostgresDB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(database *db.PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// CreateNotification inserts a notification in PENDING state
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}

	sql, args, err := psql.Insert("notifications").
		Columns("user_id", "category", "subcategory", "title", "message", "priority", "status",
			"action_url", "event_id", "expires_at").
		Values(n.UserID, n.Category, n.Subcategory, n.Title, n.Message, n.Priority, n.Status,
			n.ActionURL, n.EventID, n.ExpiresAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// UpdateStatus records the delivery outcome unless the user already interacted with it
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("notifications").
		Set("status", status).
		Where(squirrel.Eq{"id": id, "status": unreadStatuses}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating notification status: %w", err)
	}
	return nil
}

func notificationFilter(userID int64, unreadOnly bool) squirrel.And {
	where := squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.NotEq{"status": models.NotificationStatusExpired},
	}
	if unreadOnly {
		where = append(where, squirrel.Eq{"status": unreadStatuses})
	}
	return where
}

// ListNotifications returns a page of a user's notifications, newest first
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, offset uint64, limit int) ([]*models.Notification, int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	where := notificationFilter(userID, unreadOnly)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("notifications").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building count SQL: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	sql, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Subcategory, &n.Title, &n.Message, &n.Priority, &n.Status,
			&n.ActionURL, &n.EventID, &n.ExpiresAt, &n.ReadAt, &n.ActedAt, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning notification row: %w", err)
		}
		list = append(list, &n)
	}
	return list, total, rows.Err()
}

// CountUnread returns the unread badge count
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("COUNT(*)").From("notifications").Where(notificationFilter(userID, true)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int64
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as READ. It reports whether the notification exists.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var found bool
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE notifications
		SET status = CASE WHEN status IN ($3, $4, $5) THEN $6 ELSE status END,
		    read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
		RETURNING TRUE`,
		id, userID, unreadStatuses[0], unreadStatuses[1], unreadStatuses[2], models.NotificationStatusRead,
	).Scan(&found)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("error marking notification read: %w", err)
	}
	return found, nil
}

// MarkActed records that the user followed the notification's action
func (r *NotificationRepository) MarkActed(ctx context.Context, id, userID int64) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	sql, args, err := psql.Update("notifications").
		Set("status", models.NotificationStatusActed).
		Set("acted_at", now).
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", now)).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		Where(squirrel.NotEq{"status": models.NotificationStatusExpired}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error marking notification acted: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// MarkAllRead marks every unread notification of a user as READ
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("notifications").
		Set("status", models.NotificationStatusRead).
		Set("read_at", time.Now()).
		Where(squirrel.Eq{"user_id": userID, "status": unreadStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// ExpireNotifications marks notifications past their expiry as EXPIRED
func (r *NotificationRepository) ExpireNotifications(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("notifications").
		Set("status", models.NotificationStatusExpired).
		Where(squirrel.Lt{"expires_at": now}).
		Where(squirrel.NotEq{"status": models.NotificationStatusExpired}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error expiring notifications: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
