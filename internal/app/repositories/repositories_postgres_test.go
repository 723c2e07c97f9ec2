package repositories

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/migrations"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
)

// testDatabaseEnv names a disposable database; every table in it is truncated
const testDatabaseEnv = "VOLUNNET_TEST_DATABASE_URL"

type pgFixture struct {
	t     *testing.T
	ctx   context.Context
	repos *Repositories
	pool  *pgxpool.Pool
	seq   int
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.NewMigrator(pool, zerolog.Nop()).Up(ctx)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE users, categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	database := &db.PostgresDB{Pool: pool, QueryTimeout: 10 * time.Second}
	return &pgFixture{t: t, ctx: ctx, repos: NewRepositories(database), pool: pool}
}

func (f *pgFixture) organization() (*models.User, *models.Organization) {
	f.t.Helper()
	f.seq++
	u := &models.User{
		Email: fmt.Sprintf("org%d@example.org", f.seq), Password: "hash",
		FirstName: "Shore", Role: models.RoleOrganization, IsActive: true,
	}
	org := &models.Organization{Name: fmt.Sprintf("Shore %d", f.seq)}
	require.NoError(f.t, f.repos.UserRepository.CreateAccount(f.ctx, u, nil, org))
	return u, org
}

func (f *pgFixture) volunteer() (*models.User, *models.Volunteer) {
	f.t.Helper()
	f.seq++
	u := &models.User{
		Email: fmt.Sprintf("vol%d@example.org", f.seq), Password: "hash",
		FirstName: fmt.Sprintf("Vol%d", f.seq), Role: models.RoleVolunteer, IsActive: true,
	}
	v := &models.Volunteer{}
	require.NoError(f.t, f.repos.UserRepository.CreateAccount(f.ctx, u, v, nil))
	return u, v
}

func (f *pgFixture) event(org *models.Organization, status models.EventStatus, max int, length time.Duration) *models.Event {
	f.t.Helper()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	e := &models.Event{
		OrganizationID: org.ID,
		Title:          "Beach cleanup",
		Description:    "Pick up litter",
		StartDate:      start,
		EndDate:        start.Add(length),
		MaxVolunteers:  max,
		Status:         status,
	}
	require.NoError(f.t, f.repos.EventRepository.CreateEvent(f.ctx, e))
	return e
}

func (f *pgFixture) apply(e *models.Event, v *models.Volunteer) *models.EventApplication {
	f.t.Helper()
	app := &models.EventApplication{EventID: e.ID, VolunteerID: v.ID}
	require.NoError(f.t, f.repos.ApplicationRepository.CreateApplication(f.ctx, app))
	return app
}

func (f *pgFixture) seats(eventID int64) int {
	f.t.Helper()
	e, err := f.repos.EventRepository.GetEventByID(f.ctx, eventID)
	require.NoError(f.t, err)
	return e.CurrentVolunteers
}

func (f *pgFixture) setStatus(eventID int64, status models.EventStatus) {
	f.t.Helper()
	_, err := f.pool.Exec(f.ctx, `UPDATE events SET status = $2 WHERE id = $1`, eventID, status)
	require.NoError(f.t, err)
}

func TestPostgres_ConcurrentApplyNeverExceedsCapacity(t *testing.T) {
	f := newPGFixture(t)
	_, org := f.organization()
	event := f.event(org, models.EventStatusPublished, 3, 2*time.Hour)

	const applicants = 8
	volunteers := make([]*models.Volunteer, applicants)
	for i := range volunteers {
		_, volunteers[i] = f.volunteer()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for _, v := range volunteers {
		wg.Add(1)
		go func(v *models.Volunteer) {
			defer wg.Done()
			err := f.repos.ApplicationRepository.CreateApplication(f.ctx, &models.EventApplication{EventID: event.ID, VolunteerID: v.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, apperrors.ErrEventFull):
				full++
			}
		}(v)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, applicants-3, full)
	assert.Equal(t, 3, f.seats(event.ID))
}

func TestPostgres_DuplicateApplicationKeepsSeatCount(t *testing.T) {
	f := newPGFixture(t)
	_, org := f.organization()
	_, vol := f.volunteer()
	event := f.event(org, models.EventStatusPublished, 5, 2*time.Hour)

	app := f.apply(event, vol)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)

	err := f.repos.ApplicationRepository.CreateApplication(f.ctx, &models.EventApplication{EventID: event.ID, VolunteerID: vol.ID})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)
	assert.Equal(t, 1, f.seats(event.ID))

	draft := f.event(org, models.EventStatusDraft, 5, 2*time.Hour)
	err = f.repos.ApplicationRepository.CreateApplication(f.ctx, &models.EventApplication{EventID: draft.ID, VolunteerID: vol.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 0, f.seats(draft.ID))
}

func TestPostgres_ReviewRequiresOpenEvent(t *testing.T) {
	f := newPGFixture(t)
	_, org := f.organization()
	_, vol := f.volunteer()
	event := f.event(org, models.EventStatusPublished, 5, 2*time.Hour)
	app := f.apply(event, vol)

	for _, status := range []models.EventStatus{models.EventStatusCompleted, models.EventStatusArchived, models.EventStatusCancelled} {
		f.setStatus(event.ID, status)
		assert.ErrorIs(t, f.repos.ApplicationRepository.AcceptApplication(f.ctx, app.ID), apperrors.ErrInvalidState, status)
		assert.ErrorIs(t, f.repos.ApplicationRepository.RejectApplication(f.ctx, app.ID), apperrors.ErrInvalidState, status)
	}

	stored, err := f.repos.ApplicationRepository.GetApplicationByID(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, stored.Status)
	assert.Equal(t, 1, f.seats(event.ID))

	f.setStatus(event.ID, models.EventStatusOngoing)
	require.NoError(t, f.repos.ApplicationRepository.RejectApplication(f.ctx, app.ID))
	assert.Equal(t, 0, f.seats(event.ID))
}

func TestPostgres_CompleteEventCreditsAcceptedOnly(t *testing.T) {
	f := newPGFixture(t)
	_, org := f.organization()
	_, accepted1 := f.volunteer()
	_, accepted2 := f.volunteer()
	_, pending := f.volunteer()
	event := f.event(org, models.EventStatusOngoing, 5, 90*time.Minute)

	for _, v := range []*models.Volunteer{accepted1, accepted2} {
		require.NoError(t, f.repos.ApplicationRepository.AcceptApplication(f.ctx, f.apply(event, v).ID))
	}
	pendingApp := f.apply(event, pending)

	summary, err := f.repos.EventRepository.CompleteEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CompletedApplications)
	assert.Equal(t, models.EventStatusCompleted, summary.Event.Status)

	for _, v := range []*models.Volunteer{accepted1, accepted2} {
		got, err := f.repos.UserRepository.GetVolunteerByID(f.ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.EventsCompleted)
		assert.InDelta(t, 1.5, got.TotalHours, 0.001)
	}
	untouched, err := f.repos.UserRepository.GetVolunteerByID(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, untouched.EventsCompleted)

	stored, err := f.repos.ApplicationRepository.GetApplicationByID(f.ctx, pendingApp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, stored.Status)

	gotOrg, err := f.repos.UserRepository.GetOrganizationByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotOrg.EventsCompleted)

	_, err = f.repos.EventRepository.CompleteEvent(f.ctx, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	again, err := f.repos.UserRepository.GetVolunteerByID(f.ctx, accepted1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.EventsCompleted)
}

func TestPostgres_RatingsOncePerDirection(t *testing.T) {
	f := newPGFixture(t)
	orgUser, org := f.organization()
	volUser, vol := f.volunteer()
	event := f.event(org, models.EventStatusOngoing, 5, 2*time.Hour)
	app := f.apply(event, vol)
	require.NoError(t, f.repos.ApplicationRepository.AcceptApplication(f.ctx, app.ID))
	_, err := f.repos.EventRepository.CompleteEvent(f.ctx, event.ID)
	require.NoError(t, err)

	toVolunteer := &models.EventRating{
		ApplicationID: app.ID, EventID: event.ID, VolunteerID: vol.ID,
		Direction: models.RatingOrganizationToVolunteer, RaterUserID: orgUser.ID, Rating: 4, Comment: "reliable",
	}
	require.NoError(t, f.repos.RatingRepository.CreateRating(f.ctx, toVolunteer))

	dup := *toVolunteer
	dup.ID, dup.Rating = 0, 1
	assert.ErrorIs(t, f.repos.RatingRepository.CreateRating(f.ctx, &dup), apperrors.ErrRatingAlreadyExists)

	toOrg := &models.EventRating{
		ApplicationID: app.ID, EventID: event.ID, VolunteerID: vol.ID,
		Direction: models.RatingVolunteerToOrganization, RaterUserID: volUser.ID, Rating: 2, Comment: "disorganised",
	}
	require.NoError(t, f.repos.RatingRepository.CreateRating(f.ctx, toOrg))

	gotVol, err := f.repos.UserRepository.GetVolunteerByID(f.ctx, vol.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, gotVol.Rating, 0.001)
	assert.Equal(t, 1, gotVol.RatingCount)

	gotOrg, err := f.repos.UserRepository.GetOrganizationByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, gotOrg.Rating, 0.001)
	assert.Equal(t, 1, gotOrg.RatingCount)

	// the application mirrors only the organization's rating of the volunteer
	stored, err := f.repos.ApplicationRepository.GetApplicationByID(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusCompleted, stored.Status)
	require.NotNil(t, stored.Rating)
	require.NotNil(t, stored.Feedback)
	assert.Equal(t, 4, *stored.Rating)
	assert.Equal(t, "reliable", *stored.Feedback)
	assert.NotNil(t, stored.CompletedAt)

	ratings, err := f.repos.RatingRepository.ListRatingsByEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)
}
