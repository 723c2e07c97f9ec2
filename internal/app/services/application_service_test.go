package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

func TestApply_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	volUser, vol := f.db.addVolunteer("Ana")
	event := f.db.addEvent(org, models.EventStatusPublished, 3)

	app, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: event.ID, Message: "count me in"})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, vol.ID, app.VolunteerID)
	assert.False(t, app.AppliedAt.IsZero())
	assert.Equal(t, 1, f.db.event(event.ID).CurrentVolunteers)

	assert.Len(t, f.notifier.to(volUser.ID), 1)
	organizerNotes := f.notifier.to(orgUser.ID)
	require.Len(t, organizerNotes, 1)
	assert.Contains(t, organizerNotes[0].Message, "Ana")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Applications.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestApply_ErrorOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("missing event is not found", func(t *testing.T) {
		f := newFixture()
		volUser, _ := f.db.addVolunteer("Ana")
		_, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: 999})
		assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	})

	t.Run("closed event wins over duplicate", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		volUser, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusCompleted, 3)
		f.db.addApplication(event, vol, models.ApplicationStatusCompleted)

		_, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: event.ID})
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.NotErrorIs(t, err, apperrors.ErrAlreadyApplied)
	})

	t.Run("draft event is invalid state", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		volUser, _ := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)
		_, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: event.ID})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("already applied wins over full", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		volUser, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 1)
		f.db.addApplication(event, vol, models.ApplicationStatusPending)

		_, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: event.ID})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyApplied)
		assert.Equal(t, 1, f.db.event(event.ID).CurrentVolunteers)
	})

	t.Run("full event is a conflict", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		_, other := f.db.addVolunteer("Ben")
		volUser, _ := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 1)
		f.db.addApplication(event, other, models.ApplicationStatusAccepted)

		_, err := f.applications.Apply(ctx, volUser.ID, &dto.ApplyRequest{EventID: event.ID})
		assert.ErrorIs(t, err, apperrors.ErrEventFull)
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Applications.WithLabelValues(metrics.OutcomeFull)))
	})

	t.Run("organizations cannot apply", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		_, err := f.applications.Apply(ctx, orgUser.ID, &dto.ApplyRequest{EventID: event.ID})
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})
}

func TestApply_ConcurrentNeverExceedsCapacity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, org := f.db.addOrganization("Shore")
	event := f.db.addEvent(org, models.EventStatusPublished, 5)

	const applicants = 25
	userIDs := make([]int64, applicants)
	for i := range userIDs {
		u, _ := f.db.addVolunteer("Vol")
		userIDs[i] = u.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, full := 0, 0
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.applications.Apply(ctx, userID, &dto.ApplyRequest{EventID: event.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, apperrors.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	assert.Equal(t, applicants-5, full)
	assert.Equal(t, 5, f.db.event(event.ID).CurrentVolunteers)
}

func TestGetApplicationStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, org := f.db.addOrganization("Shore")
	volUser, vol := f.db.addVolunteer("Ana")
	event := f.db.addEvent(org, models.EventStatusPublished, 3)

	status, err := f.applications.GetApplicationStatus(ctx, volUser.ID, event.ID)
	require.NoError(t, err)
	assert.False(t, status.HasApplied)
	assert.Nil(t, status.Application)

	f.db.addApplication(event, vol, models.ApplicationStatusPending)
	status, err = f.applications.GetApplicationStatus(ctx, volUser.ID, event.ID)
	require.NoError(t, err)
	assert.True(t, status.HasApplied)
	assert.Equal(t, models.ApplicationStatusPending, status.Application.Status)

	list, err := f.applications.ListApplications(ctx, volUser.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, event.ID, list[0].Event.ID)
}

func TestReview(t *testing.T) {
	ctx := context.Background()

	t.Run("accept keeps the seat", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		volUser, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		app := f.db.addApplication(event, vol, models.ApplicationStatusPending)

		updated, err := f.applications.Review(ctx, orgUser.ID, event.ID, app.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusAccepted, updated.Status)
		assert.Equal(t, 1, f.db.event(event.ID).CurrentVolunteers)
		assert.Len(t, f.notifier.to(volUser.ID), 1)

		_, err = f.applications.Review(ctx, orgUser.ID, event.ID, app.ID, true)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("reject frees the seat", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		_, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		app := f.db.addApplication(event, vol, models.ApplicationStatusAccepted)

		updated, err := f.applications.Review(ctx, orgUser.ID, event.ID, app.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusRejected, updated.Status)
		assert.Equal(t, 0, f.db.event(event.ID).CurrentVolunteers)
	})

	t.Run("only the organizer reviews", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		otherUser, _ := f.db.addOrganization("Other")
		_, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		app := f.db.addApplication(event, vol, models.ApplicationStatusPending)

		_, err := f.applications.Review(ctx, otherUser.ID, event.ID, app.ID, true)
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})

	for _, status := range []models.EventStatus{
		models.EventStatusDraft, models.EventStatusCompleted, models.EventStatusArchived, models.EventStatusCancelled,
	} {
		t.Run("closed event "+string(status), func(t *testing.T) {
			f := newFixture()
			orgUser, org := f.db.addOrganization("Shore")
			volUser, vol := f.db.addVolunteer("Ana")
			event := f.db.addEvent(org, status, 3)
			pending := f.db.addApplication(event, vol, models.ApplicationStatusPending)

			_, err := f.applications.Review(ctx, orgUser.ID, event.ID, pending.ID, true)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			_, err = f.applications.Review(ctx, orgUser.ID, event.ID, pending.ID, false)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)

			assert.Equal(t, models.ApplicationStatusPending, f.db.application(pending.ID).Status)
			assert.Equal(t, 1, f.db.event(event.ID).CurrentVolunteers)
			assert.Empty(t, f.notifier.to(volUser.ID))
		})
	}

	t.Run("application of another event is not found", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		_, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		other := f.db.addEvent(org, models.EventStatusPublished, 3)
		app := f.db.addApplication(other, vol, models.ApplicationStatusPending)

		_, err := f.applications.Review(ctx, orgUser.ID, event.ID, app.ID, true)
		assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
	})
}

func TestWithdraw(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, org := f.db.addOrganization("Shore")
	volUser, vol := f.db.addVolunteer("Ana")
	event := f.db.addEvent(org, models.EventStatusPublished, 3)
	f.db.addApplication(event, vol, models.ApplicationStatusPending)

	require.NoError(t, f.applications.Withdraw(ctx, volUser.ID, event.ID))
	assert.Equal(t, 0, f.db.event(event.ID).CurrentVolunteers)

	err := f.applications.Withdraw(ctx, volUser.ID, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
}

func TestListApplicants_OrganizerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	volUser, vol := f.db.addVolunteer("Ana")
	event := f.db.addEvent(org, models.EventStatusPublished, 3)
	f.db.addApplication(event, vol, models.ApplicationStatusPending)

	applicants, err := f.applications.ListApplicants(ctx, orgUser.ID, event.ID)
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, "Ana", applicants[0].VolunteerName)

	_, err = f.applications.ListApplicants(ctx, volUser.ID, event.ID)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}
