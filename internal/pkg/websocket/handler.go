package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// contextUserIDKey is where the JWT middleware stores the caller's id
const contextUserIDKey = "userID"

// Handler upgrades authenticated requests to notification sockets.
// A user may keep several sockets open (tabs, devices); the hub fans every
// notification out to all of them.
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

func callerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// Subscribe opens one more notification stream for the caller
func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Int64("userID", userID).Msg("Notification socket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, userID, h.logger)
	if !h.hub.Register(client) {
		// hub already stopped
		conn.Close()
		return
	}
	h.logger.Debug().Int64("userID", userID).Int("sockets", h.hub.GetClientsCount(userID)).Msg("Notification socket opened")

	go client.writePump()
	go client.readPump()
}
