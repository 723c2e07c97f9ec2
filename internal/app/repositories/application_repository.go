package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

const applicationUniqueConstraint = "event_applications_event_volunteer_key"

var applicationColumns = []string{
	"a.id", "a.event_id", "a.volunteer_id", "a.status", "a.message", "a.applied_at",
	"a.reviewed_at", "a.rating", "a.feedback", "a.completed_at", "v.user_id",
}

func selectApplications(columns ...string) squirrel.SelectBuilder {
	cols := make([]string, 0, len(applicationColumns)+len(columns))
	cols = append(append(cols, applicationColumns...), columns...)
	return psql.Select(cols...).
		From("event_applications a").
		Join("volunteers v ON v.id = a.volunteer_id")
}

func applicationDest(a *models.EventApplication) []any {
	return []any{
		&a.ID, &a.EventID, &a.VolunteerID, &a.Status, &a.Message, &a.AppliedAt,
		&a.ReviewedAt, &a.Rating, &a.Feedback, &a.CompletedAt, &a.VolunteerUserID,
	}
}

// releaseSeat gives a seat back; the counter never drops below zero
func releaseSeat(ctx context.Context, tx pgx.Tx, eventID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE events SET current_volunteers = GREATEST(current_volunteers - 1, 0), updated_at = NOW()
		WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("error releasing seat: %w", err)
	}
	return nil
}

// ApplicationRepository handles event application persistence
type ApplicationRepository struct {
	db *db.PostgresDB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(database *db.PostgresDB) *ApplicationRepository {
	return &ApplicationRepository{db: database}
}

// CreateApplication takes a seat and records a PENDING application atomically.
// The seat is claimed with a conditional update so concurrent applications cannot
// push current_volunteers above max_volunteers.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, app *models.EventApplication) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE events SET current_volunteers = current_volunteers + 1, updated_at = NOW()
			WHERE id = $1 AND current_volunteers < max_volunteers AND status IN ($2, $3)`,
			app.EventID, models.EventStatusPublished, models.EventStatusOngoing)
		if err != nil {
			return fmt.Errorf("error reserving seat: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			var status models.EventStatus
			err := tx.QueryRow(ctx, `SELECT status FROM events WHERE id = $1`, app.EventID).Scan(&status)
			switch {
			case dberrors.IsNoRows(err):
				return apperrors.ErrEventNotFound
			case err != nil:
				return fmt.Errorf("error reading event: %w", err)
			case !status.AcceptsApplications():
				return apperrors.NewInvalidStateError("event is not open for applications")
			default:
				return apperrors.ErrEventFull
			}
		}

		app.Status = models.ApplicationStatusPending
		app.AppliedAt = time.Now()
		sql, args, err := psql.Insert("event_applications").
			Columns("event_id", "volunteer_id", "status", "message", "applied_at").
			Values(app.EventID, app.VolunteerID, app.Status, app.Message, app.AppliedAt).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&app.ID); err != nil {
			if dberrors.IsDuplicateConstraintError(err, applicationUniqueConstraint) {
				return apperrors.ErrAlreadyApplied
			}
			return fmt.Errorf("error creating application: %w", err)
		}
		return nil
	})
}

func (r *ApplicationRepository) getApplication(ctx context.Context, where squirrel.Sqlizer) (*models.EventApplication, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectApplications().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	app := &models.EventApplication{}
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(applicationDest(app)...); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	return app, nil
}

// GetApplication returns the application of a volunteer to an event, nil when absent
func (r *ApplicationRepository) GetApplication(ctx context.Context, eventID, volunteerID int64) (*models.EventApplication, error) {
	return r.getApplication(ctx, squirrel.Eq{"a.event_id": eventID, "a.volunteer_id": volunteerID})
}

// GetApplicationByID returns an application, nil when absent
func (r *ApplicationRepository) GetApplicationByID(ctx context.Context, id int64) (*models.EventApplication, error) {
	return r.getApplication(ctx, squirrel.Eq{"a.id": id})
}

// ListByVolunteer returns a volunteer's applications with their events, newest first
func (r *ApplicationRepository) ListByVolunteer(ctx context.Context, volunteerID int64) ([]*models.ApplicationWithEvent, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectApplications(eventColumns...).
		Join("events e ON e.id = a.event_id").
		Join("organizations o ON o.id = e.organization_id").
		LeftJoin("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"a.volunteer_id": volunteerID}).
		OrderBy("a.applied_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ApplicationWithEvent, 0)
	for rows.Next() {
		item := &models.ApplicationWithEvent{Event: &models.Event{}}
		e := item.Event
		dest := append(applicationDest(&item.EventApplication),
			&e.ID, &e.OrganizationID, &e.CategoryID, &e.Title, &e.Description,
			&e.StartDate, &e.EndDate, &e.Location.Address, &e.Location.City, &e.Location.Latitude, &e.Location.Longitude,
			&e.MaxVolunteers, &e.CurrentVolunteers, &e.Skills, &e.Requirements, &e.Benefits,
			&e.Status, &e.CreatedAt, &e.UpdatedAt,
			&e.OrganizerUserID, &e.OrganizationName, &e.CategoryName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning application row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListByEvent returns the applicants of an event for its organizer
func (r *ApplicationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.ApplicantView, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectApplications("u.first_name", "u.last_name", "u.email", "v.skills").
		Join("users u ON u.id = v.user_id").
		Where(squirrel.Eq{"a.event_id": eventID}).
		OrderBy("a.applied_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing applicants: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ApplicantView, 0)
	for rows.Next() {
		view := &models.ApplicantView{}
		var first, last string
		dest := append(applicationDest(&view.EventApplication), &first, &last, &view.VolunteerEmail, &view.Skills)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning applicant row: %w", err)
		}
		view.VolunteerName = (&models.User{FirstName: first, LastName: last}).FullName()
		out = append(out, view)
	}
	return out, rows.Err()
}

// ListParticipants returns ACCEPTED and COMPLETED applications of an event
func (r *ApplicationRepository) ListParticipants(ctx context.Context, eventID int64) ([]*models.EventApplication, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectApplications().
		Where(squirrel.Eq{
			"a.event_id": eventID,
			"a.status":   []string{string(models.ApplicationStatusAccepted), string(models.ApplicationStatusCompleted)},
		}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	defer rows.Close()

	out := make([]*models.EventApplication, 0)
	for rows.Next() {
		app := &models.EventApplication{}
		if err := rows.Scan(applicationDest(app)...); err != nil {
			return nil, fmt.Errorf("error scanning participant row: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// openEventClause limits application updates to events that are PUBLISHED or ONGOING
var openEventClause = squirrel.Expr("event_id IN (SELECT id FROM events WHERE status IN (?, ?))",
	models.EventStatusPublished, models.EventStatusOngoing)

// AcceptApplication moves a PENDING application of an open event to ACCEPTED
func (r *ApplicationRepository) AcceptApplication(ctx context.Context, id int64) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("event_applications").
		Set("status", models.ApplicationStatusAccepted).
		Set("reviewed_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": models.ApplicationStatusPending}).
		Where(openEventClause).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error accepting application: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewInvalidStateError("only pending applications of open events can be accepted")
	}
	return nil
}

// RejectApplication moves a PENDING or ACCEPTED application of an open event to REJECTED and frees its seat
func (r *ApplicationRepository) RejectApplication(ctx context.Context, id int64) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var eventID int64
		err := tx.QueryRow(ctx, `
			UPDATE event_applications SET status = $2, reviewed_at = NOW()
			WHERE id = $1 AND status IN ($3, $4)
			  AND event_id IN (SELECT id FROM events WHERE status IN ($5, $6))
			RETURNING event_id`,
			id, models.ApplicationStatusRejected, models.ApplicationStatusPending, models.ApplicationStatusAccepted,
			models.EventStatusPublished, models.EventStatusOngoing,
		).Scan(&eventID)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.NewInvalidStateError("only pending or accepted applications of open events can be rejected")
			}
			return fmt.Errorf("error rejecting application: %w", err)
		}
		return releaseSeat(ctx, tx, eventID)
	})
}

// WithdrawApplication deletes a PENDING application and frees its seat
func (r *ApplicationRepository) WithdrawApplication(ctx context.Context, id int64) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var eventID int64
		err := tx.QueryRow(ctx, `
			DELETE FROM event_applications WHERE id = $1 AND status = $2
			RETURNING event_id`,
			id, models.ApplicationStatusPending,
		).Scan(&eventID)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.NewInvalidStateError("only pending applications can be withdrawn")
			}
			return fmt.Errorf("error withdrawing application: %w", err)
		}
		return releaseSeat(ctx, tx, eventID)
	})
}

// CountByStatusForVolunteer returns the number of applications per status
func (r *ApplicationRepository) CountByStatusForVolunteer(ctx context.Context, volunteerID int64) (map[models.ApplicationStatus]int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("status", "COUNT(*)").
		From("event_applications").
		Where(squirrel.Eq{"volunteer_id": volunteerID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ApplicationStatus]int64)
	for rows.Next() {
		var status models.ApplicationStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
