package notifications

import (
	"context"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/email"
	"github.com/volunnet/volunnet/internal/pkg/helpers"
)

// EmailChannel mirrors notifications to the user's email address
type EmailChannel struct {
	sender email.EmailService
}

// NewEmailChannel creates an email channel over an SMTP sender
func NewEmailChannel(sender email.EmailService) *EmailChannel {
	return &EmailChannel{sender: sender}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, n *models.Notification, to Recipient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.User == nil || to.User.Email == "" {
		return ErrRecipientOffline
	}
	return c.sender.SendNotificationEmail(ctx, to.User.Email, to.User.FullName(), n.Title, n.Message, helpers.StringValue(n.ActionURL))
}
