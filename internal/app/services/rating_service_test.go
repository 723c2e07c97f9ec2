package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/apperrors"
)

type ratingScene struct {
	f         *fixture
	orgUser   *models.User
	org       *models.Organization
	volUser   *models.User
	volunteer *models.Volunteer
	event     *models.Event
	app       *models.EventApplication
}

// completedScene returns a completed event with one volunteer who took part
func completedScene(t *testing.T) *ratingScene {
	t.Helper()
	f := newFixture()
	orgUser, org := f.db.addOrganization("Shore")
	volUser, vol := f.db.addVolunteer("Ana")
	event := f.db.addEvent(org, models.EventStatusOngoing, 3)
	app := f.db.addApplication(event, vol, models.ApplicationStatusAccepted)

	_, err := f.lifecycle.CompleteEvent(context.Background(), orgUser.ID, event.ID)
	require.NoError(t, err)

	return &ratingScene{f: f, orgUser: orgUser, org: org, volUser: volUser, volunteer: vol, event: event, app: app}
}

func TestRate_ValidationOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("rating out of range before anything else", func(t *testing.T) {
		f := newFixture()
		for _, score := range []int{0, 6, -1} {
			_, err := f.ratings.Rate(ctx, 1, 404, &dto.RateRequest{VolunteerID: 1, Rating: score, Type: models.RatingOrganizationToVolunteer})
			assert.True(t, errors.Is(err, apperrors.ErrBadRequest), "rating %d", score)
		}
	})

	t.Run("bad direction", func(t *testing.T) {
		f := newFixture()
		_, err := f.ratings.Rate(ctx, 1, 404, &dto.RateRequest{VolunteerID: 1, Rating: 4, Type: "SIDEWAYS"})
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("missing volunteer id", func(t *testing.T) {
		f := newFixture()
		_, err := f.ratings.Rate(ctx, 1, 404, &dto.RateRequest{Rating: 4, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("event not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.ratings.Rate(ctx, 1, 404, &dto.RateRequest{VolunteerID: 1, Rating: 4, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	})

	t.Run("event not completed", func(t *testing.T) {
		f := newFixture()
		orgUser, org := f.db.addOrganization("Shore")
		_, vol := f.db.addVolunteer("Ana")
		event := f.db.addEvent(org, models.EventStatusOngoing, 3)
		f.db.addApplication(event, vol, models.ApplicationStatusAccepted)

		_, err := f.ratings.Rate(ctx, orgUser.ID, event.ID, &dto.RateRequest{VolunteerID: vol.ID, Rating: 4, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("volunteer did not participate", func(t *testing.T) {
		s := completedScene(t)
		_, outsider := s.f.db.addVolunteer("Ben")
		_, err := s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID, &dto.RateRequest{VolunteerID: outsider.ID, Rating: 4, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("rejected applicant did not participate", func(t *testing.T) {
		s := completedScene(t)
		_, rejected := s.f.db.addVolunteer("Ben")
		s.f.db.addApplication(s.event, rejected, models.ApplicationStatusRejected)
		_, err := s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID, &dto.RateRequest{VolunteerID: rejected.ID, Rating: 4, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	})

	t.Run("volunteer cannot rate itself as the organization", func(t *testing.T) {
		s := completedScene(t)
		_, err := s.f.ratings.Rate(ctx, s.volUser.ID, s.event.ID, &dto.RateRequest{VolunteerID: s.volunteer.ID, Rating: 5, Type: models.RatingOrganizationToVolunteer})
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})

	t.Run("organizer cannot rate in the volunteer direction", func(t *testing.T) {
		s := completedScene(t)
		_, err := s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID, &dto.RateRequest{VolunteerID: s.volunteer.ID, Rating: 5, Type: models.RatingVolunteerToOrganization})
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})
}

func TestRate_DuplicateIsConflict(t *testing.T) {
	s := completedScene(t)
	ctx := context.Background()
	req := &dto.RateRequest{VolunteerID: s.volunteer.ID, Rating: 4, Comment: "great", Type: models.RatingOrganizationToVolunteer}

	_, err := s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID, req)
	require.NoError(t, err)

	_, err = s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrRatingAlreadyExists)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	ratings, err := s.f.ratings.ListRatings(ctx, s.event.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}

func TestRate_BothDirectionsAreIndependent(t *testing.T) {
	s := completedScene(t)
	ctx := context.Background()

	toVolunteer, err := s.f.ratings.Rate(ctx, s.orgUser.ID, s.event.ID,
		&dto.RateRequest{VolunteerID: s.volunteer.ID, Rating: 5, Comment: "reliable", Type: models.RatingOrganizationToVolunteer})
	require.NoError(t, err)
	assert.Equal(t, 5, toVolunteer.Rating)

	toOrganization, err := s.f.ratings.Rate(ctx, s.volUser.ID, s.event.ID,
		&dto.RateRequest{VolunteerID: s.volunteer.ID, Rating: 2, Comment: "disorganized", Type: models.RatingVolunteerToOrganization})
	require.NoError(t, err)
	assert.Equal(t, 2, toOrganization.Rating)

	app := s.f.db.application(s.app.ID)
	assert.Equal(t, models.ApplicationStatusCompleted, app.Status)
	require.NotNil(t, app.CompletedAt)
	require.NotNil(t, app.Rating)
	assert.Equal(t, 5, *app.Rating, "the application keeps the organization's rating of the volunteer")
	assert.Equal(t, "reliable", *app.Feedback)

	vol := s.f.db.volunteer(s.volunteer.ID)
	assert.Equal(t, 5.0, vol.Rating)
	assert.Equal(t, 1, vol.RatingCount)
	org := s.f.db.organization(s.org.ID)
	assert.Equal(t, 2.0, org.Rating)
	assert.Equal(t, 1, org.RatingCount)

	ratings, err := s.f.ratings.ListRatings(ctx, s.event.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)

	// each rated party hears about it
	assert.NotEmpty(t, s.f.notifier.to(s.volUser.ID))
	assert.NotEmpty(t, s.f.notifier.to(s.orgUser.ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.f.metrics.Ratings.WithLabelValues(string(models.RatingOrganizationToVolunteer))))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.f.metrics.Ratings.WithLabelValues(string(models.RatingVolunteerToOrganization))))
}

func TestListRatings_Empty(t *testing.T) {
	s := completedScene(t)
	ratings, err := s.f.ratings.ListRatings(context.Background(), s.event.ID)
	require.NoError(t, err)
	assert.NotNil(t, ratings)
	assert.Empty(t, ratings)

	_, err = s.f.ratings.ListRatings(context.Background(), 404)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}
