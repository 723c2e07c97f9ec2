package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/cache"
)

// failingInbox breaks notification expiry only
type failingInbox struct {
	*memDB
}

func (failingInbox) ExpireNotifications(context.Context, time.Time) (int64, error) {
	return 0, errors.New("inbox unavailable")
}

func TestSweep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	refresh := newMemTokens()
	verifications, resets := newMemOneTime(), newMemOneTime()
	svc := NewMaintenanceService(f.db, f.db, refresh, []OneTimeTokenStore{verifications, resets}, f.cache, f.metrics,
		RetentionSettings{ArchiveAfter: 30 * 24 * time.Hour, TokenRetention: 7 * 24 * time.Hour}, zerolog.Nop())

	_, org := f.db.addOrganization("Shore")
	old := f.db.addEvent(org, models.EventStatusCompleted, 3)
	recent := f.db.addEvent(org, models.EventStatusCompleted, 3)
	f.db.mu.Lock()
	f.db.events[old.ID].EndDate = time.Now().Add(-60 * 24 * time.Hour)
	f.db.events[recent.ID].EndDate = time.Now().Add(-24 * time.Hour)
	f.db.mu.Unlock()

	past := time.Now().Add(-time.Minute)
	n := seedInbox(t, f.db, 1, 2)
	f.db.notifications[n[0].ID].ExpiresAt = &past

	require.NoError(t, refresh.CreateToken(ctx, "dead", 1, time.Now().Add(-time.Hour)))
	require.NoError(t, refresh.CreateToken(ctx, "live", 1, time.Now().Add(time.Hour)))
	require.NoError(t, verifications.CreateToken(ctx, 1, "v-old", past))
	require.NoError(t, resets.CreateToken(ctx, 1, "r-old", past))
	require.NoError(t, resets.CreateToken(ctx, 1, "r-new", time.Now().Add(time.Hour)))

	f.cache.Set(ctx, "recommendations:1", []string{}, time.Minute, cache.CatalogTag)

	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{
		ArchivedEvents:       1,
		ExpiredNotifications: 1,
		PurgedRefreshTokens:  1,
		PurgedOneTimeTokens:  2,
	}, result)

	assert.Equal(t, models.EventStatusArchived, f.db.event(old.ID).Status)
	assert.Equal(t, models.EventStatusCompleted, f.db.event(recent.ID).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(string(models.EventStatusArchived))))
	assert.Equal(t, "r-new", resets.latestFor(1))
	_, cached := f.cache.Get(ctx, "recommendations:1")
	assert.False(t, cached)

	again, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{}, again)
}

func TestSweep_ContinuesPastFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	refresh := newMemTokens()
	svc := NewMaintenanceService(f.db, failingInbox{f.db}, refresh, nil, f.cache, f.metrics,
		RetentionSettings{ArchiveAfter: time.Hour, TokenRetention: time.Hour}, zerolog.Nop())

	require.NoError(t, refresh.CreateToken(ctx, "dead", 1, time.Now().Add(-time.Hour)))

	result, err := svc.Sweep(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire notifications")
	assert.Equal(t, int64(1), result.PurgedRefreshTokens)
}
