package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must stay below pongWait
	maxFrameSize   = 4 * 1024          // clients only send read/act acknowledgements
	outboundBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The socket is authenticated by the session cookie or bearer token, not by origin
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one open notification socket of a user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, logger zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, outboundBuffer),
		userID: userID,
		logger: logger.With().Int64("userID", userID).Logger(),
	}
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// decodeFrame accepts only read/act frames that reference a notification
func decodeFrame(raw []byte) (*Message, bool) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	if (msg.Type != TypeRead && msg.Type != TypeAct) || msg.NotificationID <= 0 {
		return nil, false
	}
	return &msg, true
}

// readPump hands acknowledgement frames to the hub listeners until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.logger.Debug().Msg("Notification socket closed")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				c.logger.Warn().Err(err).Msg("Notification socket closed unexpectedly")
			}
			return
		}

		msg, ok := decodeFrame(raw)
		if !ok {
			c.logger.Debug().Int("bytes", len(raw)).Msg("Ignoring unsupported frame")
			continue
		}

		// The owner is the authenticated user, whatever the frame claims
		msg.UserID = c.userID
		msg.Timestamp = time.Now()
		c.hub.notifyMessageListeners(msg)
	}
}

// writePump delivers queued notifications and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, open := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug().Err(err).Msg("Notification socket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
