package events

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

type Client struct {
	userID string
	send   chan []byte
}

// Messages is closed when the hub drops the client.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Serve streams events to conn until either side goes away. It blocks.
// Clients only listen; anything they send is discarded.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := h.Subscribe(userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		readPump(conn, h.logger)
	}()

	writePump(conn, c, done)
	h.Unsubscribe(c)
	conn.Close()
	<-done
}

func writePump(conn *websocket.Conn, c *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func readPump(conn *websocket.Conn, logger *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}
