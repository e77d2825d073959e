package model

import "time"

// Hold represents a temporary claim on one (trip, seat) pair.  Holds
// live in Redis, not in MySQL: the key carries a TTL so a hold expires
// on its own without any sweeper.  At most one live hold exists per
// (trip, seat) at any instant; this is enforced by the store's atomic
// create-if-absent, never by application-side checks.
//
// Fields:
//  TripID     – trip to which the held seat belongs.
//  SeatNumber – seat label such as "A1".
//  UserID     – holder; advisory metadata used only to authorize purchase.
//  TTLSeconds – requested lifetime of the hold in seconds.
//  CreatedAt  – when the hold was created.
type Hold struct {
    TripID     uint64    `json:"tripId"`
    SeatNumber string    `json:"seatNumber"`
    UserID     uint64    `json:"userId"`
    TTLSeconds int64     `json:"ttlSeconds"`
    CreatedAt  time.Time `json:"createdAt"`
}
