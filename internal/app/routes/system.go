package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/volunnet/volunnet/internal/middleware"
	"github.com/volunnet/volunnet/internal/pkg/websocket"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetupSystemRoutes mounts health, metrics and the notification socket
func SetupSystemRoutes(router *gin.Engine, db Pinger, metricsHandler http.Handler, ws *websocket.Handler, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(metricsHandler))
	router.GET("/ws/notifications", authMiddleware.JWTAuth(), ws.Subscribe)
}
