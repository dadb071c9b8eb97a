package websocket

import (
	"encoding/json"
	"log/slog"

	"mavon-shop/internal/event"
)

// Hub tracks connected clients by user and delivers each event only to the
// sessions of the user it belongs to, so one tab's cart change shows up in
// the user's other tabs without leaking to anyone else.
type Hub struct {
	// Registered clients keyed by user ID.
	clients map[string]map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Event bus to listen for events.
	bus event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
		bus:        bus,
	}
}

func (h *Hub) Run() {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case client := <-h.register:
			sessions := h.clients[client.userID]
			if sessions == nil {
				sessions = make(map[*Client]bool)
				h.clients[client.userID] = sessions
			}
			sessions[client] = true
		case client := <-h.unregister:
			if sessions, ok := h.clients[client.userID]; ok {
				if _, ok := sessions[client]; ok {
					delete(sessions, client)
					close(client.send)
					if len(sessions) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
		case e := <-events:
			sessions := h.clients[e.UserID]
			if len(sessions) == 0 {
				continue
			}

			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}

			for client := range sessions {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(sessions, client)
				}
			}
			if len(sessions) == 0 {
				delete(h.clients, e.UserID)
			}
		}
	}
}
