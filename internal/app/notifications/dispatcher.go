package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
)

// NotificationStore persists notifications and their delivery status
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error
}

// PreferenceStore loads a user's channel selection
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID int64) (*models.NotificationPreference, error)
}

// UserLookup resolves the addressee of a notification
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Result summarizes one dispatch
type Result struct {
	Delivered []string
	Skipped   []string
	Failed    []string
}

// Dispatcher persists notifications and fans them out to the enabled channels
type Dispatcher struct {
	store       NotificationStore
	preferences PreferenceStore
	users       UserLookup
	channels    []Channel
	metrics     *metrics.Recorder
	expiry      time.Duration
	sendTimeout time.Duration
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher; expiry of zero keeps notifications forever
func NewDispatcher(
	store NotificationStore,
	preferences PreferenceStore,
	users UserLookup,
	channels []Channel,
	recorder *metrics.Recorder,
	expiry time.Duration,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:       store,
		preferences: preferences,
		users:       users,
		channels:    channels,
		metrics:     recorder,
		expiry:      expiry,
		sendTimeout: 10 * time.Second,
		logger:      logger,
	}
}

// Dispatch stores n and delivers it on every channel the recipient enabled.
// Only a failure to persist is returned; channel failures are logged and counted.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) (*Result, error) {
	if n.UserID <= 0 {
		return nil, fmt.Errorf("notification without recipient")
	}
	if n.ExpiresAt == nil && d.expiry > 0 {
		expiresAt := time.Now().Add(d.expiry)
		n.ExpiresAt = &expiresAt
	}
	n.Status = models.NotificationStatusPending

	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	to, err := d.recipient(ctx, n.UserID)
	if err != nil {
		d.logger.Warn().Err(err).Int64("userID", n.UserID).Msg("Could not resolve notification recipient")
		return &Result{}, nil
	}

	result := d.fanOut(ctx, n, to)

	status := models.NotificationStatusPending
	for _, name := range result.Delivered {
		if name == ChannelInApp {
			status = models.NotificationStatusDelivered
			break
		}
		status = models.NotificationStatusSent
	}
	if status != models.NotificationStatusPending {
		if err := d.store.UpdateStatus(ctx, n.ID, status); err != nil {
			d.logger.Warn().Err(err).Int64("notificationID", n.ID).Msg("Failed to record notification status")
		} else {
			n.Status = status
		}
	}

	d.logger.Debug().
		Int64("notificationID", n.ID).
		Int64("userID", n.UserID).
		Strs("delivered", result.Delivered).
		Strs("skipped", result.Skipped).
		Strs("failed", result.Failed).
		Msg("Notification dispatched")
	return result, nil
}

func (d *Dispatcher) recipient(ctx context.Context, userID int64) (Recipient, error) {
	user, err := d.users.GetUserByID(ctx, userID)
	if err != nil {
		return Recipient{}, err
	}
	if user == nil {
		return Recipient{}, fmt.Errorf("user %d not found", userID)
	}

	pref, err := d.preferences.GetPreference(ctx, userID)
	if err != nil {
		d.logger.Warn().Err(err).Int64("userID", userID).Msg("Falling back to default notification preferences")
		pref = nil
	}
	if pref == nil {
		pref = models.DefaultNotificationPreference(userID)
	}
	return Recipient{User: user, Preference: pref}, nil
}

// fanOut sends on all enabled channels concurrently. Every goroutine returns nil
// so one failing channel never cancels the others.
func (d *Dispatcher) fanOut(ctx context.Context, n *models.Notification, to Recipient) *Result {
	var (
		mu     sync.Mutex
		result = &Result{}
	)
	record := func(name, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case metrics.OutcomeSuccess:
			result.Delivered = append(result.Delivered, name)
		case metrics.OutcomeSkipped:
			result.Skipped = append(result.Skipped, name)
		default:
			result.Failed = append(result.Failed, name)
		}
		if d.metrics != nil {
			d.metrics.Notifications.WithLabelValues(name, outcome).Inc()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range d.channels {
		ch := ch
		if !enabled(ch.Name(), to.Preference) {
			continue
		}
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(gctx, d.sendTimeout)
			defer cancel()

			err := ch.Send(sendCtx, n, to)
			switch {
			case err == nil:
				record(ch.Name(), metrics.OutcomeSuccess)
			case errors.Is(err, ErrRecipientOffline), errors.Is(err, ErrChannelDisabled):
				record(ch.Name(), metrics.OutcomeSkipped)
			default:
				d.logger.Warn().
					Err(err).
					Str("channel", ch.Name()).
					Int64("notificationID", n.ID).
					Msg("Notification channel failed")
				record(ch.Name(), metrics.OutcomeError)
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}

// Notify dispatches n without failing the caller. It runs detached from ctx's
// cancellation so a finished request does not abort delivery.
func (d *Dispatcher) Notify(ctx context.Context, n *models.Notification) {
	ctx = context.WithoutCancel(ctx)
	if _, err := d.Dispatch(ctx, n); err != nil {
		d.logger.Warn().
			Err(err).
			Int64("userID", n.UserID).
			Str("subcategory", n.Subcategory).
			Msg("Notification could not be stored")
	}
}
