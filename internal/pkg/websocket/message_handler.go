package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// NotificationMarker records that a user read or acted on a notification
type NotificationMarker interface {
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkActed(ctx context.Context, id, userID int64) (bool, error)
}

// MessageHandler applies read/act frames sent by clients
type MessageHandler struct {
	marker  NotificationMarker
	hub     *Hub
	timeout time.Duration
	logger  zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(marker NotificationMarker, hub *Hub, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		marker:  marker,
		hub:     hub,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Start processes inbound frames until ctx is done
func (h *MessageHandler) Start(ctx context.Context) {
	messageChan := make(chan *Message, 64)
	h.hub.AddMessageListener(messageChan)

	go func() {
		defer h.hub.RemoveMessageListener(messageChan)
		for {
			select {
			case <-ctx.Done():
				return
			case message := <-messageChan:
				h.HandleIncomingMessage(ctx, message)
			}
		}
	}()
}

// HandleIncomingMessage applies one inbound frame
func (h *MessageHandler) HandleIncomingMessage(ctx context.Context, message *Message) {
	if message == nil || message.NotificationID <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		updated bool
		err     error
	)
	switch message.Type {
	case TypeRead:
		updated, err = h.marker.MarkRead(ctx, message.NotificationID, message.UserID)
	case TypeAct:
		updated, err = h.marker.MarkActed(ctx, message.NotificationID, message.UserID)
	default:
		h.logger.Debug().Str("type", message.Type).Msg("Ignoring unknown websocket frame")
		return
	}

	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("notificationID", message.NotificationID).
			Int64("userID", message.UserID).
			Msg("Failed to apply websocket frame")
		return
	}

	h.logger.Debug().
		Str("type", message.Type).
		Int64("notificationID", message.NotificationID).
		Bool("updated", updated).
		Msg("Websocket frame applied")
}
