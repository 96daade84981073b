package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and subscribes it to the admin
// ledger feed. Auth has already happened in the route middleware.
func HandleWebSocket(c echo.Context, hub *Hub) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{Conn: conn}
	hub.register <- client

	conn.WriteJSON(Notification{
		Type:    NotificationTypeConnected,
		Message: "WebSocket connection established",
	})

	// Drain reads until the peer disconnects
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
