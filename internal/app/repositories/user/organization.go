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

var organizationColumns = []string{
	"o.id", "o.user_id", "o.name", "o.description", "o.website", "o.is_verified", "o.focus_areas",
	"o.address", "o.city", "o.latitude", "o.longitude",
	"o.rating", "o.rating_count", "o.events_hosted", "o.events_completed",
	"o.created_at", "o.updated_at",
}

// OrganizationRepository handles organization profile operations
type OrganizationRepository struct {
	db *db.PostgresDB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(database *db.PostgresDB) *OrganizationRepository {
	return &OrganizationRepository{db: database}
}

// InsertOrganization creates the organization profile on q
func (r *OrganizationRepository) InsertOrganization(ctx context.Context, q db.DBTX, o *models.Organization) error {
	sql, args, err := psql.Insert("organizations").
		Columns("user_id", "name", "description", "website", "focus_areas", "address", "city", "latitude", "longitude").
		Values(o.UserID, o.Name, o.Description, o.Website, nonNil(o.FocusAreas),
			o.Location.Address, o.Location.City, o.Location.Latitude, o.Location.Longitude).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "organizations_user_id_key") {
			return apperrors.NewConflictError("organization profile already exists")
		}
		return fmt.Errorf("error creating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) getOrganization(ctx context.Context, where squirrel.Sqlizer) (*models.Organization, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select(organizationColumns...).From("organizations o").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	o := &models.Organization{}
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&o.ID, &o.UserID, &o.Name, &o.Description, &o.Website, &o.IsVerified, &o.FocusAreas,
		&o.Location.Address, &o.Location.City, &o.Location.Latitude, &o.Location.Longitude,
		&o.Rating, &o.RatingCount, &o.EventsHosted, &o.EventsCompleted,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving organization: %w", err)
	}
	return o, nil
}

// GetOrganizationByUserID returns the organization owned by a user, nil when absent
func (r *OrganizationRepository) GetOrganizationByUserID(ctx context.Context, userID int64) (*models.Organization, error) {
	return r.getOrganization(ctx, squirrel.Eq{"o.user_id": userID})
}

// GetOrganizationByID returns an organization, nil when absent
func (r *OrganizationRepository) GetOrganizationByID(ctx context.Context, id int64) (*models.Organization, error) {
	return r.getOrganization(ctx, squirrel.Eq{"o.id": id})
}

// UpdateOrganization stores the mutable profile attributes
func (r *OrganizationRepository) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("organizations").
		SetMap(map[string]interface{}{
			"name":        o.Name,
			"description": o.Description,
			"website":     o.Website,
			"focus_areas": nonNil(o.FocusAreas),
			"address":     o.Location.Address,
			"city":        o.Location.City,
			"latitude":    o.Location.Latitude,
			"longitude":   o.Location.Longitude,
			"updated_at":  time.Now(),
		}).
		Where(squirrel.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating organization: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrOrganizationNotFound
	}
	return nil
}
