package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
)

// DashboardRepository runs the read-only aggregate queries behind the dashboards
type DashboardRepository struct {
	db *db.PostgresDB
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(database *db.PostgresDB) *DashboardRepository {
	return &DashboardRepository{db: database}
}

// UpcomingEventsForVolunteer returns accepted events that have not started yet
func (r *DashboardRepository) UpcomingEventsForVolunteer(ctx context.Context, volunteerID int64, now time.Time, limit int) ([]*models.Event, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectEvents().
		Join("event_applications a ON a.event_id = e.id").
		Where(squirrel.Eq{"a.volunteer_id": volunteerID, "a.status": models.ApplicationStatusAccepted}).
		Where(squirrel.Gt{"e.start_date": now}).
		OrderBy("e.start_date ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing upcoming events: %w", err)
	}
	return collectEvents(rows)
}

// EventCountsByStatus returns how many events an organization has per status
func (r *DashboardRepository) EventCountsByStatus(ctx context.Context, organizationID int64) (map[models.EventStatus]int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("status", "COUNT(*)").
		From("events").
		Where(squirrel.Eq{"organization_id": organizationID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventStatus]int64)
	for rows.Next() {
		var status models.EventStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ApplicationCountsForOrganization returns pending applications and distinct
// volunteers that took part in the organization's events
func (r *DashboardRepository) ApplicationCountsForOrganization(ctx context.Context, organizationID int64) (pending, volunteers int64, err error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	err = r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE a.status = $2),
			COUNT(DISTINCT a.volunteer_id) FILTER (WHERE a.status IN ($3, $4))
		FROM event_applications a
		JOIN events e ON e.id = a.event_id
		WHERE e.organization_id = $1`,
		organizationID, models.ApplicationStatusPending, models.ApplicationStatusAccepted, models.ApplicationStatusCompleted,
	).Scan(&pending, &volunteers)
	if err != nil {
		return 0, 0, fmt.Errorf("error counting applications: %w", err)
	}
	return pending, volunteers, nil
}
