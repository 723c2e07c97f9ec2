package notifications

import (
	"context"
	"errors"

	"github.com/volunnet/volunnet/internal/app/models"
)

// Channel names, also used as metric labels
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelSMS   = "sms"
)

var (
	// ErrRecipientOffline means the channel had no way to reach the user right now
	ErrRecipientOffline = errors.New("recipient not reachable on channel")
	// ErrChannelDisabled means the channel is not configured in this deployment
	ErrChannelDisabled = errors.New("channel disabled")
)

// Recipient is the addressee of a notification together with their delivery preferences
type Recipient struct {
	User       *models.User
	Preference *models.NotificationPreference
}

// Channel delivers a persisted notification over one medium
type Channel interface {
	Name() string
	Send(ctx context.Context, n *models.Notification, to Recipient) error
}

// enabled reports whether the recipient opted into the channel. In-app delivery is always on.
func enabled(channel string, pref *models.NotificationPreference) bool {
	switch channel {
	case ChannelInApp:
		return true
	case ChannelEmail:
		return pref.EmailEnabled
	case ChannelPush:
		return pref.PushEnabled
	case ChannelSMS:
		return pref.SMSEnabled
	}
	return false
}
