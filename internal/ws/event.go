// Package ws implements the seat-state broadcast channel: a WebSocket
// hub that fans out hold/release/sale transitions to every connected
// client.  Delivery is best effort; a client that connects late or
// falls behind reconciles by re-reading the trip status over HTTP.
package ws

// Event types published over the broadcast channel.
const (
    EventSeatHeld     = "seat-held"
    EventSeatReleased = "seat-released"
    EventSeatSold     = "seat-sold"
)

// SeatEvent is the wire payload for a seat-state transition.  Field
// names match what browsers already consume: tripId, seatNumber,
// userId and ttlSeconds.  UserID and TTLSeconds are omitted when the
// event type does not carry them (releases have neither, sales have no
// TTL).
type SeatEvent struct {
    Type       string `json:"type"`
    TripID     uint64 `json:"tripId"`
    SeatNumber string `json:"seatNumber"`
    UserID     uint64 `json:"userId,omitempty"`
    TTLSeconds int64  `json:"ttlSeconds,omitempty"`
}

// SeatHeld builds the event announcing a new hold.
func SeatHeld(tripID uint64, seat string, userID uint64, ttlSeconds int64) SeatEvent {
    return SeatEvent{Type: EventSeatHeld, TripID: tripID, SeatNumber: seat, UserID: userID, TTLSeconds: ttlSeconds}
}

// SeatReleased builds the event announcing an explicit release.  No
// event is published for passive TTL expiry; the store's silence is
// the only signal.
func SeatReleased(tripID uint64, seat string) SeatEvent {
    return SeatEvent{Type: EventSeatReleased, TripID: tripID, SeatNumber: seat}
}

// SeatSold builds the event announcing a committed purchase.
func SeatSold(tripID uint64, seat string, userID uint64) SeatEvent {
    return SeatEvent{Type: EventSeatSold, TripID: tripID, SeatNumber: seat, UserID: userID}
}
