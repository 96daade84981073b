package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
)

// Notification event types for the admin feed.
const (
	NotificationTypeConnected   = "connected"
	NotificationTypeLedgerEntry = "ledger_entry"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	Conn *websocket.Conn
}

// Hub maintains the set of connected admin dashboards and broadcasts ledger
// events to them as they are written.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a notification to every connected client.
func (h *Hub) Broadcast(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if err := client.Conn.WriteJSON(notification); err != nil {
			log.Printf("WARNING: websocket write failed: %v", err)
		}
	}
}

// LedgerEntryCreated implements services.LedgerNotifier: every new commission
// or credit shows up live on connected admin dashboards.
func (h *Hub) LedgerEntryCreated(entry models.LedgerEntry) {
	h.Broadcast(Notification{
		Type:    NotificationTypeLedgerEntry,
		Message: "New ledger entry recorded",
		Data:    entry,
	})
}
