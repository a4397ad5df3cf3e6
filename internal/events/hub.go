// Package events pushes application workflow events to connected users over
// websockets.
package events

import (
	"context"

	"go.uber.org/zap"
)

const sendBuffer = 32

type delivery struct {
	data       []byte
	recipients []string
}

// Hub tracks connected clients by user id. All map access happens on the Run
// goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	stopped    chan struct{}
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return

		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.logger.Debug("websocket client connected", zap.String("user_id", c.userID), zap.Int("connections", len(set)))

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliver:
			for _, userID := range d.recipients {
				for c := range h.clients[userID] {
					select {
					case c.send <- d.data:
					default:
						h.logger.Warn("websocket client too slow, dropping", zap.String("user_id", userID))
						h.remove(c)
					}
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.logger.Debug("websocket client disconnected", zap.String("user_id", c.userID))
}

// Publish queues msg for every connection of the given users. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(msg Message, userIDs ...string) {
	data, err := msg.JSON()
	if err != nil {
		h.logger.Error("encode event", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(userIDs))
	recipients := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	select {
	case h.deliver <- delivery{data: data, recipients: recipients}:
	default:
		h.logger.Warn("event queue full, dropping", zap.String("type", string(msg.Type)))
	}
}

// Subscribe registers a client for userID. The caller must Unsubscribe it.
// Once the hub has stopped the returned client's channel is already closed.
func (h *Hub) Subscribe(userID string) *Client {
	c := &Client{userID: userID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.stopped:
		close(c.send)
	}
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}
