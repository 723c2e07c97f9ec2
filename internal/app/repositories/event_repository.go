package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

var eventColumns = []string{
	"e.id", "e.organization_id", "e.category_id", "e.title", "e.description",
	"e.start_date", "e.end_date", "e.address", "e.city", "e.latitude", "e.longitude",
	"e.max_volunteers", "e.current_volunteers", "e.skills", "e.requirements", "e.benefits",
	"e.status", "e.created_at", "e.updated_at",
	"o.user_id", "o.name", "COALESCE(c.name, '')",
}

func selectEvents() squirrel.SelectBuilder {
	return psql.Select(eventColumns...).
		From("events e").
		Join("organizations o ON o.id = e.organization_id").
		LeftJoin("categories c ON c.id = e.category_id")
}

func scanEvent(row scanner) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.CategoryID, &e.Title, &e.Description,
		&e.StartDate, &e.EndDate, &e.Location.Address, &e.Location.City, &e.Location.Latitude, &e.Location.Longitude,
		&e.MaxVolunteers, &e.CurrentVolunteers, &e.Skills, &e.Requirements, &e.Benefits,
		&e.Status, &e.CreatedAt, &e.UpdatedAt,
		&e.OrganizerUserID, &e.OrganizationName, &e.CategoryName)
	return e, err
}

func collectEvents(rows pgx.Rows) ([]*models.Event, error) {
	defer rows.Close()
	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func statusStrings(statuses []models.EventStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// EventRepository handles event persistence
type EventRepository struct {
	db *db.PostgresDB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(database *db.PostgresDB) *EventRepository {
	return &EventRepository{db: database}
}

// CreateEvent inserts an event and bumps the organization's hosted counter
func (r *EventRepository) CreateEvent(ctx context.Context, e *models.Event) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Insert("events").
			Columns("organization_id", "category_id", "title", "description", "start_date", "end_date",
				"address", "city", "latitude", "longitude", "max_volunteers", "current_volunteers",
				"skills", "requirements", "benefits", "status").
			Values(e.OrganizationID, e.CategoryID, e.Title, e.Description, e.StartDate, e.EndDate,
				e.Location.Address, e.Location.City, e.Location.Latitude, e.Location.Longitude, e.MaxVolunteers, 0,
				helpers.NonNilStrings(e.Skills), helpers.NonNilStrings(e.Requirements), helpers.NonNilStrings(e.Benefits), e.Status).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.ErrCategoryNotFound
			}
			return fmt.Errorf("error creating event: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE organizations SET events_hosted = events_hosted + 1, updated_at = NOW() WHERE id = $1`, e.OrganizationID)
		if err != nil {
			return fmt.Errorf("error updating organization counters: %w", err)
		}
		return nil
	})
}

// GetEventByID returns an event with its organizer, nil when absent
func (r *EventRepository) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectEvents().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	e, err := scanEvent(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving event: %w", err)
	}
	return e, nil
}

func applyEventFilter(q squirrel.SelectBuilder, filter models.EventFilter) squirrel.SelectBuilder {
	if len(filter.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"e.status": statusStrings(filter.Statuses)})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"e.category_id": *filter.CategoryID})
	}
	if filter.OrganizationID != nil {
		q = q.Where(squirrel.Eq{"e.organization_id": *filter.OrganizationID})
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		q = q.Where("LOWER(e.city) = LOWER(?)", city)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + helpers.EscapeLike(search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"e.title": pattern},
			squirrel.ILike{"e.description": pattern},
		})
	}
	return q
}

// ListEvents returns a page of events matching filter plus the total count
func (r *EventRepository) ListEvents(ctx context.Context, filter models.EventFilter, offset uint64, limit int) ([]*models.Event, int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	countSQL, countArgs, err := applyEventFilter(
		psql.Select("COUNT(*)").From("events e"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building count SQL: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	sql, args, err := applyEventFilter(selectEvents(), filter).
		OrderBy("e.start_date ASC", "e.id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// UpdateEvent stores editable attributes while the event is still a draft or published.
// Capacity may not drop below the seats already taken.
func (r *EventRepository) UpdateEvent(ctx context.Context, e *models.Event) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("events").
		SetMap(map[string]interface{}{
			"category_id":    e.CategoryID,
			"title":          e.Title,
			"description":    e.Description,
			"start_date":     e.StartDate,
			"end_date":       e.EndDate,
			"address":        e.Location.Address,
			"city":           e.Location.City,
			"latitude":       e.Location.Latitude,
			"longitude":      e.Location.Longitude,
			"max_volunteers": e.MaxVolunteers,
			"skills":         helpers.NonNilStrings(e.Skills),
			"requirements":   helpers.NonNilStrings(e.Requirements),
			"benefits":       helpers.NonNilStrings(e.Benefits),
			"updated_at":     time.Now(),
		}).
		Where(squirrel.Eq{"id": e.ID}).
		Where(squirrel.Eq{"status": statusStrings([]models.EventStatus{models.EventStatusDraft, models.EventStatusPublished})}).
		Where("current_volunteers <= ?", e.MaxVolunteers).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCategoryNotFound
		}
		return fmt.Errorf("error updating event: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewInvalidStateError("event can no longer be edited or capacity is below accepted volunteers")
	}
	return nil
}

// TransitionStatus moves an event to `to` only when it is currently in one of `from`.
// It reports whether the row changed.
func (r *EventRepository) TransitionStatus(ctx context.Context, id int64, from []models.EventStatus, to models.EventStatus) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("events").
		Set("status", to).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": statusStrings(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error updating event status: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// CompleteEvent marks the event COMPLETED and cascades ACCEPTED applications to
// COMPLETED, crediting participants and the organization, in one transaction
func (r *EventRepository) CompleteEvent(ctx context.Context, id int64) (*models.CompletionSummary, error) {
	var completed int64

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var orgID int64
		var start, end time.Time
		err := tx.QueryRow(ctx, `
			UPDATE events SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status IN ($3, $4)
			RETURNING organization_id, start_date, end_date`,
			id, models.EventStatusCompleted, models.EventStatusPublished, models.EventStatusOngoing,
		).Scan(&orgID, &start, &end)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.NewInvalidTransitionError("only published or ongoing events can be completed")
			}
			return fmt.Errorf("error completing event: %w", err)
		}

		hours := 0.0
		if end.After(start) {
			hours = end.Sub(start).Hours()
		}

		_, err = tx.Exec(ctx, `
			UPDATE volunteers
			SET events_completed = events_completed + 1, total_hours = total_hours + $2, updated_at = NOW()
			WHERE id IN (SELECT volunteer_id FROM event_applications WHERE event_id = $1 AND status = $3)`,
			id, hours, models.ApplicationStatusAccepted)
		if err != nil {
			return fmt.Errorf("error crediting volunteers: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, `
			UPDATE event_applications SET status = $2
			WHERE event_id = $1 AND status = $3`,
			id, models.ApplicationStatusCompleted, models.ApplicationStatusAccepted)
		if err != nil {
			return fmt.Errorf("error completing applications: %w", err)
		}
		completed = cmdTag.RowsAffected()

		_, err = tx.Exec(ctx, `UPDATE organizations SET events_completed = events_completed + 1, updated_at = NOW() WHERE id = $1`, orgID)
		if err != nil {
			return fmt.Errorf("error updating organization counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event, err := r.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CompletionSummary{Event: event, CompletedApplications: completed}, nil
}

// ArchiveCompletedBefore archives completed events that ended before the cutoff
func (r *EventRepository) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Update("events").
		Set("status", models.EventStatusArchived).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"status": models.EventStatusCompleted}).
		Where(squirrel.Lt{"end_date": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error archiving events: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// ListOpenEvents returns published events starting after `after` that still have free seats
func (r *EventRepository) ListOpenEvents(ctx context.Context, after time.Time, limit int) ([]*models.Event, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := selectEvents().
		Where(squirrel.Eq{"e.status": models.EventStatusPublished}).
		Where(squirrel.Gt{"e.start_date": after}).
		Where("e.current_volunteers < e.max_volunteers").
		OrderBy("e.start_date ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing open events: %w", err)
	}
	return collectEvents(rows)
}
