package websocket

import (
	"context"
	"encoding/json"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
)

// Hub manages the set of active clients and broadcasts statuses to them.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        *logrus.Entry
}

// NewHub creates a new Hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		log:        logger.WithField("component", "hub"),
	}
}

// Run starts the hub's event loop. It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer h.log.Info("hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.WithField("remoteAddr", client.remoteAddr()).Debug("client registered")
		case client := <-h.unregister:
			h.remove(client)
		case payload := <-h.broadcast:
			h.fanOut(payload)
		}
	}
}

// Broadcast queues status for every connected client. It returns without
// sending once the hub has stopped.
func (h *Hub) Broadcast(status nowplaying.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		h.log.WithError(err).Error("failed to encode status for broadcast")
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.WithField("remoteAddr", c.remoteAddr()).Debug("client unregistered")
}

func (h *Hub) fanOut(payload []byte) {
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.WithField("remoteAddr", c.remoteAddr()).Warn("client send buffer full, dropping client")
			h.remove(c)
		}
	}
}

// closeAll closes all active client connections during shutdown.
func (h *Hub) closeAll() {
	for c := range h.clients {
		h.remove(c)
	}
}
