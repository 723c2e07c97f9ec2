package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// RetentionSettings controls what the sweep removes
type RetentionSettings struct {
	// COMPLETED events that ended before now-ArchiveAfter are archived
	ArchiveAfter time.Duration
	// Revoked or expired refresh tokens older than this are deleted
	TokenRetention time.Duration
}

// SweepResult counts what one sweep changed
type SweepResult struct {
	ArchivedEvents       int64 `json:"archivedEvents"`
	ExpiredNotifications int64 `json:"expiredNotifications"`
	PurgedRefreshTokens  int64 `json:"purgedRefreshTokens"`
	PurgedOneTimeTokens  int64 `json:"purgedOneTimeTokens"`
}

// MaintenanceService runs the periodic cleanup
type MaintenanceService interface {
	Sweep(ctx context.Context) (*SweepResult, error)
}

type maintenanceServiceImpl struct {
	events        EventStore
	inbox         InboxStore
	refreshTokens RefreshTokenStore
	oneTimeTokens []OneTimeTokenStore
	cache         cache.Cache
	metrics       *metrics.Recorder
	settings      RetentionSettings
	logger        zerolog.Logger
	now           func() time.Time
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	events EventStore,
	inbox InboxStore,
	refreshTokens RefreshTokenStore,
	oneTimeTokens []OneTimeTokenStore,
	c cache.Cache,
	recorder *metrics.Recorder,
	settings RetentionSettings,
	logger zerolog.Logger,
) MaintenanceService {
	return &maintenanceServiceImpl{
		events:        events,
		inbox:         inbox,
		refreshTokens: refreshTokens,
		oneTimeTokens: oneTimeTokens,
		cache:         c,
		metrics:       recorder,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// Sweep archives old completed events, expires notifications and purges dead tokens.
// Every step runs even when an earlier one fails; the failures are joined.
func (s *maintenanceServiceImpl) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	result := &SweepResult{}
	var errs []error

	archived, err := s.events.ArchiveCompletedBefore(ctx, now.Add(-s.settings.ArchiveAfter))
	if err != nil {
		errs = append(errs, fmt.Errorf("archive events: %w", err))
	} else if archived > 0 {
		result.ArchivedEvents = archived
		s.metrics.Transitions.WithLabelValues(string(models.EventStatusArchived)).Add(float64(archived))
		invalidate(ctx, s.cache, cache.CatalogTag)
	}

	expired, err := s.inbox.ExpireNotifications(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire notifications: %w", err))
	}
	result.ExpiredNotifications = expired

	purged, err := s.refreshTokens.CleanupExpiredTokens(ctx, now.Add(-s.settings.TokenRetention))
	if err != nil {
		errs = append(errs, fmt.Errorf("purge refresh tokens: %w", err))
	}
	result.PurgedRefreshTokens = purged

	for _, store := range s.oneTimeTokens {
		n, err := store.DeleteExpiredTokens(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge one-time tokens: %w", err))
			continue
		}
		result.PurgedOneTimeTokens += n
	}

	s.logger.Info().
		Int64("archivedEvents", result.ArchivedEvents).
		Int64("expiredNotifications", result.ExpiredNotifications).
		Int64("purgedRefreshTokens", result.PurgedRefreshTokens).
		Int64("purgedOneTimeTokens", result.PurgedOneTimeTokens).
		Msg("Sweep finished")

	return result, errors.Join(errs...)
}
