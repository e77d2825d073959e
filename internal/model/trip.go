package model

import (
    "fmt"
    "time"
)

// SeatLayout describes the seating grid of a bus.  Seat labels are
// derived from the grid rather than stored: row 1 maps to letter "A",
// row 2 to "B" and so on, and columns are numbered from 1.  The layout
// is persisted as a JSON column on the trip row.
//
// Fields:
//  Rows        – number of seating rows on the bus.
//  SeatsPerRow – number of seats in each row.
type SeatLayout struct {
    Rows        int `json:"rows"`        // bus_trips.layout ("rows")
    SeatsPerRow int `json:"seatsPerRow"` // bus_trips.layout ("seatsPerRow")
}

// SeatLabels enumerates every valid seat label for the layout in row
// major order ("A1", "A2", ..., "B1", ...).  The result is computed
// fresh on each call; it is never cached.
func (l SeatLayout) SeatLabels() []string {
    labels := make([]string, 0, l.Rows*l.SeatsPerRow)
    for r := 0; r < l.Rows; r++ {
        for c := 1; c <= l.SeatsPerRow; c++ {
            labels = append(labels, fmt.Sprintf("%c%d", 'A'+r, c))
        }
    }
    return labels
}

// Contains reports whether the given seat label is a valid position in
// this layout.  Hold and purchase requests are validated against the
// layout before any store is touched.
func (l SeatLayout) Contains(label string) bool {
    if len(label) < 2 {
        return false
    }
    row := int(label[0] - 'A')
    if row < 0 || row >= l.Rows {
        return false
    }
    col := 0
    for _, ch := range label[1:] {
        if ch < '0' || ch > '9' {
            return false
        }
        col = col*10 + int(ch-'0')
    }
    return col >= 1 && col <= l.SeatsPerRow
}

// BusTrip represents a scheduled trip as stored in the `bus_trips`
// table.  Trips are created by organizers and are immutable as far as
// the seat state machine is concerned: holds and purchases reference a
// trip only by its ID.
//
// Fields:
//  ID            – primary key identifier.
//  RouteDetails  – free-form route description (origin, stops, destination).
//  DepartureTime – when the bus departs.
//  ArrivalTime   – when the bus arrives (after DepartureTime).
//  BusType       – vehicle category (e.g. "standard", "sleeper").
//  Layout        – seating grid, stored as JSON.
//  PricePerSeat  – price of a single seat.
//  SaleDuration  – how long before departure sales stay open, in minutes.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type BusTrip struct {
    ID            uint64     `json:"id"`            // bus_trips.id
    RouteDetails  string     `json:"routeDetails"`  // bus_trips.route_details
    DepartureTime time.Time  `json:"departureTime"` // bus_trips.departure_time
    ArrivalTime   time.Time  `json:"arrivalTime"`   // bus_trips.arrival_time
    BusType       string     `json:"busType"`       // bus_trips.bus_type
    Layout        SeatLayout `json:"layout"`        // bus_trips.layout (JSON)
    PricePerSeat  float64    `json:"pricePerSeat"`  // bus_trips.price_per_seat
    SaleDuration  int        `json:"saleDuration"`  // bus_trips.sale_duration
    CreatedAt     time.Time  `json:"createdAt"`     // bus_trips.created_at
    UpdatedAt     time.Time  `json:"updatedAt"`     // bus_trips.updated_at
}
