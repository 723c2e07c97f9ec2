package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
	"github.com/volunnet/volunnet/internal/pkg/cache"
)

var allStatuses = []models.EventStatus{
	models.EventStatusDraft,
	models.EventStatusPublished,
	models.EventStatusOngoing,
	models.EventStatusCompleted,
	models.EventStatusArchived,
	models.EventStatusCancelled,
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]models.EventStatus]bool{
		{models.EventStatusDraft, models.EventStatusPublished}:     true,
		{models.EventStatusDraft, models.EventStatusCancelled}:     true,
		{models.EventStatusPublished, models.EventStatusOngoing}:   true,
		{models.EventStatusPublished, models.EventStatusCompleted}: true,
		{models.EventStatusPublished, models.EventStatusCancelled}: true,
		{models.EventStatusOngoing, models.EventStatusCompleted}:   true,
		{models.EventStatusOngoing, models.EventStatusCancelled}:   true,
		{models.EventStatusCompleted, models.EventStatusArchived}:  true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]models.EventStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	for _, terminal := range []models.EventStatus{models.EventStatusArchived, models.EventStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range allStatuses {
			assert.False(t, CanTransition(terminal, to))
		}
	}
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("publish a draft", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)

		updated, err := f.lifecycle.Transition(ctx, orgUser.ID, event.ID, models.EventStatusPublished)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusPublished, updated.Status)
	})

	t.Run("no way back", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusOngoing, 3)

		_, err := f.lifecycle.Transition(ctx, orgUser.ID, event.ID, models.EventStatusPublished)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
		assert.Equal(t, models.EventStatusOngoing, f.db.event(event.ID).Status)
	})

	t.Run("cancel notifies active applicants", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		pendingUser, pending := f.db.addVolunteer("Ana")
		rejectedUser, rejected := f.db.addVolunteer("Ben")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)
		f.db.addApplication(event, pending, models.ApplicationStatusPending)
		f.db.addApplication(event, rejected, models.ApplicationStatusRejected)

		updated, err := f.lifecycle.Transition(ctx, orgUser.ID, event.ID, models.EventStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusCancelled, updated.Status)
		assert.Len(t, f.notifier.to(pendingUser.ID), 1)
		assert.Empty(t, f.notifier.to(rejectedUser.ID))
	})

	t.Run("archive only after completion", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)

		_, err := f.lifecycle.Transition(ctx, orgUser.ID, event.ID, models.EventStatusArchived)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	})

	t.Run("unknown status is a bad request", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)

		_, err := f.lifecycle.Transition(ctx, orgUser.ID, event.ID, models.EventStatus("PAUSED"))
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})
}

func TestCompleteEvent_Cascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	acceptedUser, accepted := f.db.addVolunteer("Ana")
	_, pending := f.db.addVolunteer("Ben")
	_, rejected := f.db.addVolunteer("Cem")
	event := f.db.addEvent(org, models.EventStatusOngoing, 5)

	acceptedApp := f.db.addApplication(event, accepted, models.ApplicationStatusAccepted)
	pendingApp := f.db.addApplication(event, pending, models.ApplicationStatusPending)
	rejectedApp := f.db.addApplication(event, rejected, models.ApplicationStatusRejected)

	f.cache.Set(ctx, "dashboard", 1, time.Minute, cache.VolunteerTag(accepted.ID))

	completed, err := f.lifecycle.CompleteEvent(ctx, orgUser.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, completed.Status)

	assert.Equal(t, models.ApplicationStatusCompleted, f.db.application(acceptedApp.ID).Status)
	assert.Equal(t, models.ApplicationStatusPending, f.db.application(pendingApp.ID).Status)
	assert.Equal(t, models.ApplicationStatusRejected, f.db.application(rejectedApp.ID).Status)

	credited := f.db.volunteer(accepted.ID)
	assert.Equal(t, 1, credited.EventsCompleted)
	assert.InDelta(t, 3.0, credited.TotalHours, 0.001)
	assert.Equal(t, 0, f.db.volunteer(pending.ID).EventsCompleted)
	assert.Equal(t, 1, f.db.organization(org.ID).EventsCompleted)

	assert.Len(t, f.notifier.to(acceptedUser.ID), 1)
	assert.Len(t, f.notifier.to(orgUser.ID), 1)

	_, ok := f.cache.Get(ctx, "dashboard")
	assert.False(t, ok, "participant aggregates are invalidated")
}

func TestCompleteEvent_ErrorOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("not found before forbidden", func(t *testing.T) {
		f := newFixture()
		strangerUser, _ := f.db.addOrganization("Other")
		_, err := f.lifecycle.CompleteEvent(ctx, strangerUser.ID, 404)
		assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	})

	t.Run("forbidden before invalid transition", func(t *testing.T) {
		f := newFixture()
		_, org := f.db.addOrganization("Shore")
		strangerUser, _ := f.db.addOrganization("Other")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)

		_, err := f.lifecycle.CompleteEvent(ctx, strangerUser.ID, event.ID)
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})

	t.Run("draft cannot complete", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusDraft, 3)

		_, err := f.lifecycle.CompleteEvent(ctx, orgUser.ID, event.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	})

	t.Run("completed twice", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		event := f.db.addEvent(org, models.EventStatusPublished, 3)

		_, err := f.lifecycle.CompleteEvent(ctx, orgUser.ID, event.ID)
		require.NoError(t, err)
		_, err = f.lifecycle.CompleteEvent(ctx, orgUser.ID, event.ID)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
		assert.Equal(t, 1, f.db.organization(org.ID).EventsCompleted)
	})
}

func TestCompletionInfo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orgUser, org := f.db.addOrganization("Shore")
	participantUser, participant := f.db.addVolunteer("Ana")
	pendingUser, pending := f.db.addVolunteer("Ben")
	event := f.db.addEvent(org, models.EventStatusPublished, 3)
	f.db.addApplication(event, participant, models.ApplicationStatusAccepted)
	f.db.addApplication(event, pending, models.ApplicationStatusPending)

	info, err := f.lifecycle.CompletionInfo(ctx, orgUser.ID, event.ID)
	require.NoError(t, err)
	assert.True(t, info.CanComplete)
	assert.False(t, info.IsParticipant)
	assert.Equal(t, 1, info.ParticipantsCount)

	info, err = f.lifecycle.CompletionInfo(ctx, participantUser.ID, event.ID)
	require.NoError(t, err)
	assert.False(t, info.CanComplete)
	assert.True(t, info.IsParticipant)
	require.NotNil(t, info.Application)

	_, err = f.lifecycle.CompletionInfo(ctx, pendingUser.ID, event.ID)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}
