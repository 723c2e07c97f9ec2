package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/pkg/websocket"
)

// InAppChannel pushes notifications to the user's open websocket connections.
// The persisted row is the in-app inbox, so an offline user still sees it later.
type InAppChannel struct {
	hub *websocket.Hub
}

// NewInAppChannel creates an in-app channel over the websocket hub
func NewInAppChannel(hub *websocket.Hub) *InAppChannel {
	return &InAppChannel{hub: hub}
}

func (c *InAppChannel) Name() string { return ChannelInApp }

func (c *InAppChannel) Send(ctx context.Context, n *models.Notification, to Recipient) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(websocket.Message{
		Type:           websocket.TypeNotification,
		NotificationID: n.ID,
		Data:           n,
		Timestamp:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if c.hub.SendToUser(n.UserID, data) == 0 {
		return ErrRecipientOffline
	}
	return nil
}
