package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

const upcomingEventsLimit = 5

// CacheSettings controls how long aggregates live and how long a read may take
type CacheSettings struct {
	StatsTTL           time.Duration
	RecommendationsTTL time.Duration
	ReadTimeout        time.Duration
}

// DashboardService defines the dashboard read models
type DashboardService interface {
	VolunteerDashboard(ctx context.Context, userID int64) (*dto.VolunteerDashboard, error)
	OrganizationDashboard(ctx context.Context, userID int64) (*dto.OrganizationDashboard, error)
}

type dashboardServiceImpl struct {
	authz        *appAuth.AuthorizationService
	applications ApplicationStore
	dashboards   DashboardStore
	inbox        InboxStore
	cache        cache.Cache
	metrics      *metrics.Recorder
	settings     CacheSettings
	logger       zerolog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	authz *appAuth.AuthorizationService,
	applications ApplicationStore,
	dashboards DashboardStore,
	inbox InboxStore,
	c cache.Cache,
	recorder *metrics.Recorder,
	settings CacheSettings,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardServiceImpl{
		authz:        authz,
		applications: applications,
		dashboards:   dashboards,
		inbox:        inbox,
		cache:        c,
		metrics:      recorder,
		settings:     settings,
		logger:       logger,
	}
}

// readThrough serves key from the cache or loads it under timeout. When the load
// times out the last cached value is returned, or fallback when there is none,
// and stale is reported.
func readThrough[T any](
	ctx context.Context,
	c cache.Cache,
	recorder *metrics.Recorder,
	key string,
	ttl, timeout time.Duration,
	tags []string,
	load func(ctx context.Context) (T, error),
	fallback T,
) (value T, stale bool, err error) {
	if cached, ok := c.Get(ctx, key); ok {
		if v, ok := cached.(T); ok {
			recorder.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
			return v, false, nil
		}
	}
	recorder.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()

	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	value, err = load(readCtx)
	if err == nil {
		c.Set(ctx, key, value, ttl, tags...)
		return value, false, nil
	}

	timedOut := errors.Is(err, context.DeadlineExceeded) || readCtx.Err() != nil
	if !timedOut || ctx.Err() != nil {
		return value, false, err
	}

	recorder.CacheLookups.WithLabelValues(metrics.CacheStale).Inc()
	if previous, ok := c.GetStale(ctx, key); ok {
		if v, ok := previous.(T); ok {
			return v, true, nil
		}
	}
	return fallback, true, nil
}

func volunteerDashboardKey(volunteerID int64) string {
	return fmt.Sprintf("dashboard:volunteer:%d", volunteerID)
}

func organizationDashboardKey(organizationID int64) string {
	return fmt.Sprintf("dashboard:organization:%d", organizationID)
}

// VolunteerDashboard aggregates the caller's applications, profile figures and upcoming events
func (s *dashboardServiceImpl) VolunteerDashboard(ctx context.Context, userID int64) (*dto.VolunteerDashboard, error) {
	volunteer, err := s.authz.RequireVolunteer(ctx, userID)
	if err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (*dto.VolunteerDashboard, error) {
		d := &dto.VolunteerDashboard{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			counts, err := s.applications.CountByStatusForVolunteer(gctx, volunteer.ID)
			if err != nil {
				return err
			}
			d.PendingApplications = counts[models.ApplicationStatusPending]
			d.AcceptedApplications = counts[models.ApplicationStatusAccepted]
			d.RejectedApplications = counts[models.ApplicationStatusRejected]
			d.CompletedApplications = counts[models.ApplicationStatusCompleted]
			return nil
		})
		g.Go(func() error {
			upcoming, err := s.dashboards.UpcomingEventsForVolunteer(gctx, volunteer.ID, time.Now(), upcomingEventsLimit)
			if err != nil {
				return err
			}
			d.UpcomingEvents = upcoming
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	}

	cached, stale, err := readThrough(ctx, s.cache, s.metrics,
		volunteerDashboardKey(volunteer.ID), s.settings.StatsTTL, s.settings.ReadTimeout,
		[]string{cache.VolunteerTag(volunteer.ID)}, load, &dto.VolunteerDashboard{})
	if err != nil {
		s.logger.Error().Err(err).Int64("volunteerID", volunteer.ID).Msg("Failed to build volunteer dashboard")
		return nil, fmt.Errorf("error building dashboard: %w", err)
	}

	d := *cached
	if d.UpcomingEvents == nil {
		d.UpcomingEvents = []*models.Event{}
	}
	d.Stale = stale
	d.TotalHours = volunteer.TotalHours
	d.EventsCompleted = volunteer.EventsCompleted
	d.Rating = volunteer.Rating
	d.RatingCount = volunteer.RatingCount
	d.UnreadNotifications = s.unread(ctx, userID)
	return &d, nil
}

// OrganizationDashboard aggregates the caller's events and applicants
func (s *dashboardServiceImpl) OrganizationDashboard(ctx context.Context, userID int64) (*dto.OrganizationDashboard, error) {
	org, err := s.authz.RequireOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (*dto.OrganizationDashboard, error) {
		d := &dto.OrganizationDashboard{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			counts, err := s.dashboards.EventCountsByStatus(gctx, org.ID)
			if err != nil {
				return err
			}
			d.EventsByStatus = counts
			return nil
		})
		g.Go(func() error {
			pending, volunteers, err := s.dashboards.ApplicationCountsForOrganization(gctx, org.ID)
			if err != nil {
				return err
			}
			d.PendingApplications = pending
			d.TotalVolunteers = volunteers
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return d, nil
	}

	cached, stale, err := readThrough(ctx, s.cache, s.metrics,
		organizationDashboardKey(org.ID), s.settings.StatsTTL, s.settings.ReadTimeout,
		[]string{cache.OrganizationTag(org.ID)}, load, &dto.OrganizationDashboard{})
	if err != nil {
		s.logger.Error().Err(err).Int64("organizationID", org.ID).Msg("Failed to build organization dashboard")
		return nil, fmt.Errorf("error building dashboard: %w", err)
	}

	d := *cached
	if d.EventsByStatus == nil {
		d.EventsByStatus = map[models.EventStatus]int64{}
	}
	d.Stale = stale
	d.EventsHosted = org.EventsHosted
	d.EventsCompleted = org.EventsCompleted
	d.Rating = org.Rating
	d.RatingCount = org.RatingCount
	d.UnreadNotifications = s.unread(ctx, userID)
	return &d, nil
}

// unread is always read live; the inbox changes too often to cache
func (s *dashboardServiceImpl) unread(ctx context.Context, userID int64) int64 {
	n, err := s.inbox.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Could not count unread notifications")
		return 0
	}
	return n
}
