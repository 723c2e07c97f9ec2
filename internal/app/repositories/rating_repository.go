package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

const ratingUniqueConstraint = "event_ratings_application_direction_key"

// RatingRepository handles directional ratings
type RatingRepository struct {
	db *db.PostgresDB
}

// NewRatingRepository creates a new RatingRepository
func NewRatingRepository(database *db.PostgresDB) *RatingRepository {
	return &RatingRepository{db: database}
}

// CreateRating records a rating, completes the application and refreshes the
// rated party's aggregate in one transaction. A second rating in the same
// direction for the same application fails with ErrRatingAlreadyExists.
func (r *RatingRepository) CreateRating(ctx context.Context, rating *models.EventRating) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Insert("event_ratings").
			Columns("application_id", "event_id", "volunteer_id", "direction", "rater_user_id", "rating", "comment").
			Values(rating.ApplicationID, rating.EventID, rating.VolunteerID, rating.Direction, rating.RaterUserID, rating.Rating, rating.Comment).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&rating.ID, &rating.CreatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, ratingUniqueConstraint) {
				return apperrors.ErrRatingAlreadyExists
			}
			return fmt.Errorf("error creating rating: %w", err)
		}

		update := psql.Update("event_applications").
			Set("status", models.ApplicationStatusCompleted).
			Set("completed_at", rating.CreatedAt).
			Where(squirrel.Eq{"id": rating.ApplicationID})
		if rating.Direction == models.RatingOrganizationToVolunteer {
			update = update.Set("rating", rating.Rating).Set("feedback", rating.Comment)
		}
		sql, args, err = update.ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error completing application: %w", err)
		}

		switch rating.Direction {
		case models.RatingOrganizationToVolunteer:
			_, err = tx.Exec(ctx, `
				UPDATE volunteers v
				SET rating = agg.avg, rating_count = agg.cnt, updated_at = NOW()
				FROM (
					SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt
					FROM event_ratings WHERE volunteer_id = $1 AND direction = $2
				) agg
				WHERE v.id = $1`,
				rating.VolunteerID, models.RatingOrganizationToVolunteer)
		case models.RatingVolunteerToOrganization:
			_, err = tx.Exec(ctx, `
				UPDATE organizations o
				SET rating = agg.avg, rating_count = agg.cnt, updated_at = NOW()
				FROM (
					SELECT COALESCE(AVG(r.rating), 0) AS avg, COUNT(*) AS cnt
					FROM event_ratings r JOIN events e ON e.id = r.event_id
					WHERE e.organization_id = (SELECT organization_id FROM events WHERE id = $1)
					  AND r.direction = $2
				) agg
				WHERE o.id = (SELECT organization_id FROM events WHERE id = $1)`,
				rating.EventID, models.RatingVolunteerToOrganization)
		}
		if err != nil {
			return fmt.Errorf("error refreshing rating aggregate: %w", err)
		}
		return nil
	})
}

// ListRatingsByEvent returns every rating of an event, oldest first
func (r *RatingRepository) ListRatingsByEvent(ctx context.Context, eventID int64) ([]*models.EventRating, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("id", "application_id", "event_id", "volunteer_id", "direction",
		"rater_user_id", "rating", "comment", "created_at").
		From("event_ratings").
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]*models.EventRating, 0)
	for rows.Next() {
		var rt models.EventRating
		if err := rows.Scan(&rt.ID, &rt.ApplicationID, &rt.EventID, &rt.VolunteerID, &rt.Direction,
			&rt.RaterUserID, &rt.Rating, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning rating row: %w", err)
		}
		ratings = append(ratings, &rt)
	}
	return ratings, rows.Err()
}
