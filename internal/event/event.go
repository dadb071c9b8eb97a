package event

type Type string

const (
	TypeCartUpdated  Type = "cart.updated"
	TypeCartCleared  Type = "cart.cleared"
	TypeOrderPlaced  Type = "order.placed"
	TypeOrderUpdated Type = "order.updated"
)

// Event is fanned out to every websocket session of UserID: the server-push
// analog of a storage event observed by another browser tab.
type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	UserID    string `json:"-"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
