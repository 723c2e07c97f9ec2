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

var volunteerColumns = []string{
	"v.id", "v.user_id", "v.bio", "v.skills", "v.interests", "v.languages",
	"v.address", "v.city", "v.latitude", "v.longitude",
	"v.rating", "v.rating_count", "v.total_hours", "v.events_completed",
	"v.created_at", "v.updated_at",
}

// VolunteerRepository handles volunteer profile operations
type VolunteerRepository struct {
	db *db.PostgresDB
}

// NewVolunteerRepository creates a new VolunteerRepository
func NewVolunteerRepository(database *db.PostgresDB) *VolunteerRepository {
	return &VolunteerRepository{db: database}
}

// InsertVolunteer creates the volunteer profile on q
func (r *VolunteerRepository) InsertVolunteer(ctx context.Context, q db.DBTX, v *models.Volunteer) error {
	sql, args, err := psql.Insert("volunteers").
		Columns("user_id", "bio", "skills", "interests", "languages", "address", "city", "latitude", "longitude").
		Values(v.UserID, v.Bio, nonNil(v.Skills), nonNil(v.Interests), nonNil(v.Languages),
			v.Location.Address, v.Location.City, v.Location.Latitude, v.Location.Longitude).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "volunteers_user_id_key") {
			return apperrors.NewConflictError("volunteer profile already exists")
		}
		return fmt.Errorf("error creating volunteer: %w", err)
	}
	return nil
}

func (r *VolunteerRepository) getVolunteer(ctx context.Context, where squirrel.Sqlizer) (*models.Volunteer, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select(volunteerColumns...).From("volunteers v").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	v := &models.Volunteer{}
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&v.ID, &v.UserID, &v.Bio, &v.Skills, &v.Interests, &v.Languages,
		&v.Location.Address, &v.Location.City, &v.Location.Latitude, &v.Location.Longitude,
		&v.Rating, &v.RatingCount, &v.TotalHours, &v.EventsCompleted,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving volunteer: %w", err)
	}
	return v, nil
}

// GetVolunteerByUserID returns the volunteer profile of a user, nil when absent
func (r *VolunteerRepository) GetVolunteerByUserID(ctx context.Context, userID int64) (*models.Volunteer, error) {
	return r.getVolunteer(ctx, squirrel.Eq{"v.user_id": userID})
}

// GetVolunteerByID returns a volunteer profile, nil when absent
func (r *VolunteerRepository) GetVolunteerByID(ctx context.Context, id int64) (*models.Volunteer, error) {
	return r.getVolunteer(ctx, squirrel.Eq{"v.id": id})
}

// UpdateVolunteer stores the mutable profile attributes
func (r *VolunteerRepository) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("volunteers").
		SetMap(map[string]interface{}{
			"bio":        v.Bio,
			"skills":     nonNil(v.Skills),
			"interests":  nonNil(v.Interests),
			"languages":  nonNil(v.Languages),
			"address":    v.Location.Address,
			"city":       v.Location.City,
			"latitude":   v.Location.Latitude,
			"longitude":  v.Location.Longitude,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": v.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating volunteer: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrVolunteerNotFound
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
