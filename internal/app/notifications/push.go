package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models"
)

const pushSubjectPrefix = "volunnet.push."

// Publisher is the subset of *nats.Conn the push channel needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// PushChannel publishes notifications to NATS, where a push gateway fans them out to devices.
// Without a connection the channel is disabled.
type PushChannel struct {
	publisher Publisher
	logger    zerolog.Logger
}

// pushPayload is the message a push gateway consumes
type pushPayload struct {
	NotificationID int64                       `json:"notificationId"`
	UserID         int64                       `json:"userId"`
	Title          string                      `json:"title"`
	Message        string                      `json:"message"`
	Priority       models.NotificationPriority `json:"priority"`
	ActionURL      *string                     `json:"actionUrl,omitempty"`
	SentAt         time.Time                   `json:"sentAt"`
}

// NewPushChannel creates a push channel over an existing publisher; nil disables the channel
func NewPushChannel(publisher Publisher, logger zerolog.Logger) *PushChannel {
	return &PushChannel{publisher: publisher, logger: logger}
}

// ConnectNATS dials the push broker. An empty URL returns a nil connection.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("volunnet-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// PushSubject is the NATS subject carrying pushes for one user
func PushSubject(userID int64) string {
	return fmt.Sprintf("%s%d", pushSubjectPrefix, userID)
}

func (c *PushChannel) Name() string { return ChannelPush }

func (c *PushChannel) Send(ctx context.Context, n *models.Notification, _ Recipient) error {
	if c.publisher == nil {
		return ErrChannelDisabled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	data, err := json.Marshal(pushPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       n.Priority,
		ActionURL:      n.ActionURL,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	if err := c.publisher.Publish(PushSubject(n.UserID), data); err != nil {
		return fmt.Errorf("publish push: %w", err)
	}
	return nil
}
