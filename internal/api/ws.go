package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rj-tabelon/rentalrabbit/internal/events"
	"github.com/rj-tabelon/rentalrabbit/internal/middleware"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bearer gate in front of /ws authenticates the caller.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events handles GET /ws. The caller receives application events addressed
// to their user id until they disconnect.
func Events(hub *events.Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		hub.Serve(conn, middleware.GetUserID(c))
	}
}
