package realtime

import (
	"context"
	"log/slog"
)

type targetedEvent struct {
	room  string
	event Event
}

// Hub fans events out to websocket clients grouped into rooms. Each user
// gets a private room; admins may additionally join the admin room.
// Delivery is best effort: a client that cannot keep up is dropped.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan targetedEvent
	rooms      map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan targetedEvent, 64),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Run owns the room table. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
			}
			return ctx.Err()

		case c := <-h.register:
			for _, room := range c.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]struct{})
				}
				h.rooms[room][c] = struct{}{}
			}
			slog.Info("Realtime client connected", "rooms", c.rooms)

		case c := <-h.unregister:
			h.drop(c)

		case te := <-h.events:
			raw, err := te.event.marshal()
			if err != nil {
				slog.Error("Failed to encode realtime event", "event", te.event.Name, "error", err)
				continue
			}
			for c := range h.rooms[te.room] {
				select {
				case c.send <- raw:
				default:
					// Slow consumer: drop it rather than block the hub.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	dropped := false
	for _, room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			if _, ok := clients[c]; ok {
				delete(clients, c)
				dropped = true
				if len(clients) == 0 {
					delete(h.rooms, room)
				}
			}
		}
	}
	if dropped {
		close(c.send)
		slog.Info("Realtime client disconnected", "rooms", c.rooms)
	}
}

// PublishToUser sends an event to one user's room.
func (h *Hub) PublishToUser(userID string, e Event) {
	h.publish(UserRoom(userID), e)
}

// PublishToAdmins sends an event to the admin room.
func (h *Hub) PublishToAdmins(e Event) {
	h.publish(AdminRoom, e)
}

func (h *Hub) publish(room string, e Event) {
	select {
	case h.events <- targetedEvent{room: room, event: e}:
	default:
		// No delivery guarantee; shedding under pressure is acceptable.
		slog.Warn("Realtime event dropped, hub queue full", "event", e.Name, "room", room)
	}
}
