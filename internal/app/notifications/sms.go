package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
)

// SMSChannel is a placeholder that records what would be texted.
// No SMS provider is integrated.
type SMSChannel struct {
	logger zerolog.Logger
}

// NewSMSChannel creates the logging SMS channel
func NewSMSChannel(logger zerolog.Logger) *SMSChannel {
	return &SMSChannel{logger: logger}
}

func (c *SMSChannel) Name() string { return ChannelSMS }

func (c *SMSChannel) Send(ctx context.Context, n *models.Notification, to Recipient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.Preference == nil || to.Preference.Phone == nil || *to.Preference.Phone == "" {
		return ErrRecipientOffline
	}

	c.logger.Info().
		Int64("notificationID", n.ID).
		Int64("userID", n.UserID).
		Str("phone", maskPhone(*to.Preference.Phone)).
		Str("title", n.Title).
		Msg("SMS delivery simulated")
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
