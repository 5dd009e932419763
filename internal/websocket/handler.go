package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// NewHandler creates the websocket endpoint. originAllowed decides which
// browser origins may connect.
func NewHandler(hub *Hub, poller *Poller, originAllowed func(string) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if !originAllowed(origin) {
				hub.log.WithField("origin", origin).Warn("origin not allowed, rejecting connection")
				return false
			}
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			hub.log.WithError(err).Debug("websocket upgrade failed")
			return
		}

		client := newClient(hub, conn)

		// Queue the last known state before the hub can write to or close
		// the send channel.
		poller.greet(client)

		if !hub.add(client) {
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump()
	}
}
