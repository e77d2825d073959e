package ws

import (
    "encoding/json"
    "log"
)

// Hub owns the set of connected clients and fans events out to them.
// All mutations of the client set happen on the hub goroutine via the
// register/unregister channels, so no lock guards the map.  Publishing
// never blocks the caller: the broadcast channel is buffered and a
// full per-client send buffer drops that client rather than stalling
// the rest.
type Hub struct {
    clients    map[*Client]struct{}
    register   chan *Client
    unregister chan *Client
    broadcast  chan []byte
}

// NewHub returns a hub ready to Run.
func NewHub() *Hub {
    return &Hub{
        clients:    make(map[*Client]struct{}),
        register:   make(chan *Client),
        unregister: make(chan *Client),
        broadcast:  make(chan []byte, 64),
    }
}

// Run processes registrations and broadcasts until the process exits.
// Call it once from main in its own goroutine.
func (h *Hub) Run() {
    for {
        select {
        case c := <-h.register:
            h.clients[c] = struct{}{}
        case c := <-h.unregister:
            if _, ok := h.clients[c]; ok {
                delete(h.clients, c)
                close(c.send)
            }
        case msg := <-h.broadcast:
            for c := range h.clients {
                select {
                case c.send <- msg:
                default:
                    // Slow consumer: drop it so the publisher and the
                    // remaining clients keep moving.
                    delete(h.clients, c)
                    close(c.send)
                }
            }
        }
    }
}

// Publish serializes the event and queues it for every connected
// client.  Delivery is best effort: when the broadcast buffer is full
// the event is dropped and logged, never blocking the caller.  Clients
// that miss events reconcile with a fresh trip status read.
func (h *Hub) Publish(ev SeatEvent) {
    payload, err := json.Marshal(ev)
    if err != nil {
        log.Printf("ws: marshal event failed: %v", err)
        return
    }
    select {
    case h.broadcast <- payload:
    default:
        log.Printf("ws: broadcast buffer full, dropping %s for trip %d seat %s", ev.Type, ev.TripID, ev.SeatNumber)
    }
}
