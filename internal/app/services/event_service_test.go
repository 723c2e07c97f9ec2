package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
)

func newEventRequest() *dto.CreateEventRequest {
	start := time.Now().Add(72 * time.Hour).Truncate(time.Minute)
	lat, lon := 41.01, 28.97
	return &dto.CreateEventRequest{
		Title:         "  Food bank shift ",
		Description:   "Sort donations",
		StartDate:     start,
		EndDate:       start.Add(4 * time.Hour),
		Location:      dto.LocationRequest{City: "Istanbul", Latitude: &lat, Longitude: &lon},
		MaxVolunteers: 10,
		Skills:        []string{"Logistics", "logistics", " Driving "},
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")

	event, err := f.events.CreateEvent(ctx, orgUser.ID, newEventRequest())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, event.Status)
	assert.Equal(t, org.ID, event.OrganizationID)
	assert.Equal(t, "Food bank shift", event.Title)
	assert.Equal(t, []string{"logistics", "driving"}, event.Skills)
	assert.Equal(t, 0, event.CurrentVolunteers)
	require.NotNil(t, event.Location.Latitude)

	req := newEventRequest()
	req.Publish = true
	published, err := f.events.CreateEvent(ctx, orgUser.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, published.Status)
}

func TestCreateEvent_Validation(t *testing.T) {
	ctx := context.Background()

	cases := map[string]func(*dto.CreateEventRequest){
		"blank title":         func(r *dto.CreateEventRequest) { r.Title = "   " },
		"blank description":   func(r *dto.CreateEventRequest) { r.Description = "" },
		"end before start":    func(r *dto.CreateEventRequest) { r.EndDate = r.StartDate.Add(-time.Hour) },
		"end equals start":    func(r *dto.CreateEventRequest) { r.EndDate = r.StartDate },
		"no volunteer needed": func(r *dto.CreateEventRequest) { r.MaxVolunteers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			orgUser, _ := f.db.addOrganization("Shore")
			req := newEventRequest()
			mutate(req)
			_, err := f.events.CreateEvent(ctx, orgUser.ID, req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		f := newFixture()
		orgUser, _ := f.db.addOrganization("Shore")
		req := newEventRequest()
		missing := int64(77)
		req.CategoryID = &missing
		_, err := f.events.CreateEvent(ctx, orgUser.ID, req)
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("volunteers cannot create events", func(t *testing.T) {
		f := newFixture()
		volUser, _ := f.db.addVolunteer("Ana")
		_, err := f.events.CreateEvent(ctx, volUser.ID, newEventRequest())
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})
}

func TestGetEvent_DraftsAreHidden(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	volUser, _ := f.db.addVolunteer("Ana")
	draft := f.db.addEvent(org, models.EventStatusDraft, 3)

	got, err := f.events.GetEvent(ctx, orgUser.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = f.events.GetEvent(ctx, volUser.ID, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	_, err = f.events.GetEvent(ctx, orgUser.ID, 404)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestListEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	otherUser, other := f.db.addOrganization("Other")
	volUser, _ := f.db.addVolunteer("Ana")
	published := f.db.addEvent(org, models.EventStatusPublished, 3)
	f.db.addEvent(org, models.EventStatusDraft, 3)
	f.db.addEvent(other, models.EventStatusDraft, 3)

	events, total, err := f.events.ListEvents(ctx, volUser.ID, &dto.EventFilterRequest{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, published.ID, events[0].ID)

	drafts, total, err := f.events.ListEvents(ctx, orgUser.ID, &dto.EventFilterRequest{Status: "DRAFT"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, org.ID, drafts[0].OrganizationID)

	// asking for someone else's drafts still yields only the caller's own
	drafts, _, err = f.events.ListEvents(ctx, otherUser.ID, &dto.EventFilterRequest{Status: "DRAFT", OrganizationID: &org.ID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, other.ID, drafts[0].OrganizationID)

	_, _, err = f.events.ListEvents(ctx, volUser.ID, &dto.EventFilterRequest{Status: "DRAFT"}, 1, 20)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	empty, total, err := f.events.ListEvents(ctx, volUser.ID, &dto.EventFilterRequest{}, 5, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer edits a published event", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)

		req := newUpdateRequest()
		req.Title = "Renamed"
		updated, err := f.events.UpdateEvent(ctx, orgUser.ID, event.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, models.EventStatusPublished, updated.Status)
	})

	t.Run("capacity cannot drop below registered volunteers", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		_, a := f.db.addVolunteer("Ana")
		_, b := f.db.addVolunteer("Ben")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		f.db.addApplication(event, a, models.ApplicationStatusPending)
		f.db.addApplication(event, b, models.ApplicationStatusAccepted)

		req := newUpdateRequest()
		req.MaxVolunteers = 1
		_, err := f.events.UpdateEvent(ctx, orgUser.ID, event.ID, req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("ongoing events are frozen", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusOngoing, 3)

		req := newUpdateRequest()
		_, err := f.events.UpdateEvent(ctx, orgUser.ID, event.ID, req)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("only the organizer edits", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		strangerUser, _ := f.db.addOrganization("Other")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)

		req := newUpdateRequest()
		_, err := f.events.UpdateEvent(ctx, strangerUser.ID, event.ID, req)
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})
}

func TestListCategories_NeverNil(t *testing.T) {
	f := newFixture()
	categories, err := f.events.ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)

	f.db.categories[1] = &models.Category{ID: 1, Name: "Environment"}
	categories, err = f.events.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func newUpdateRequest() *dto.UpdateEventRequest {
	r := newEventRequest()
	return &dto.UpdateEventRequest{
		Title:         r.Title,
		Description:   r.Description,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Location:      r.Location,
		MaxVolunteers: r.MaxVolunteers,
		Skills:        r.Skills,
	}
}
