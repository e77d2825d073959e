// Package booking implements the reservation coordinator: the state
// machine that moves a seat from available to held to sold.  The
// coordinator owns no authoritative state of its own; the only
// serialization points are the hold store's atomic create-if-absent
// and the purchase ledger's transactional check-and-insert.  It never
// holds an in-process lock across a store call.
package booking

import (
    "context"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
    "github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// Conflict reasons reported per seat by Hold.
const (
    ReasonAlreadyHeld = "already-held"
    ReasonError       = "error"
)

// HoldStore is the subset of the Redis hold store the coordinator
// needs.  See repository.HoldStore for the production implementation.
type HoldStore interface {
    TryCreateHold(ctx context.Context, tripID uint64, seat string, userID uint64, ttl time.Duration) (bool, error)
    GetHold(ctx context.Context, tripID uint64, seat string) (*model.Hold, error)
    ReleaseHold(ctx context.Context, tripID uint64, seat string) error
    ListHeldSeats(ctx context.Context, tripID uint64) ([]string, error)
}

// PurchaseLedger is the subset of the MySQL purchase repository the
// coordinator needs.
type PurchaseLedger interface {
    CheckAndInsert(ctx context.Context, tripID uint64, seats []string, userID uint64) ([]model.Purchase, error)
    ListSoldSeats(ctx context.Context, tripID uint64) ([]string, error)
}

// Broadcaster publishes seat-state transitions to connected observers.
type Broadcaster interface {
    Publish(ev ws.SeatEvent)
}

// SeatConflict describes one seat that could not be held.
type SeatConflict struct {
    SeatNumber string `json:"seatNumber"`
    Reason     string `json:"reason"`
}

// HoldResult enumerates the outcome of a multi-seat hold request.
// Partial success is expected: each seat is attempted independently.
type HoldResult struct {
    Held      []string       `json:"held"`
    Conflicts []SeatConflict `json:"conflicts"`
}

// Success reports whether at least one seat was held.
func (r HoldResult) Success() bool { return len(r.Held) > 0 }

// NotHeldError reports a purchase attempt over seats the requester
// does not currently hold (no live hold, or held by someone else).
// The request is rejected as a whole before any store mutation.
type NotHeldError struct {
    Seats []string
}

func (e *NotHeldError) Error() string {
    return fmt.Sprintf("seats not held by user: %s", strings.Join(e.Seats, ", "))
}

// Coordinator wires the hold store, the purchase ledger and the
// broadcast hub into the externally visible seat state machine.
type Coordinator struct {
    holds  HoldStore
    ledger PurchaseLedger
    bus    Broadcaster
}

// New returns a Coordinator over the given collaborators.  All three
// must be non-nil.
func New(holds HoldStore, ledger PurchaseLedger, bus Broadcaster) *Coordinator {
    if holds == nil || ledger == nil || bus == nil {
        panic("nil dependency passed to booking.New")
    }
    return &Coordinator{holds: holds, ledger: ledger, bus: bus}
}

// Hold attempts to hold every seat in the list for userID.  Seats are
// attempted independently so one conflict never voids the others.  A
// seat already held by anyone (including the requester) reports
// "already-held"; a store failure reports "error" — never a silent
// success.  Each acquired hold is announced as seat-held.
func (c *Coordinator) Hold(ctx context.Context, tripID uint64, seats []string, userID uint64, ttl time.Duration) HoldResult {
    var res HoldResult
    for _, seat := range seats {
        ok, err := c.holds.TryCreateHold(ctx, tripID, seat, userID, ttl)
        if err != nil {
            res.Conflicts = append(res.Conflicts, SeatConflict{SeatNumber: seat, Reason: ReasonError})
            continue
        }
        if !ok {
            res.Conflicts = append(res.Conflicts, SeatConflict{SeatNumber: seat, Reason: ReasonAlreadyHeld})
            continue
        }
        res.Held = append(res.Held, seat)
        c.bus.Publish(ws.SeatHeld(tripID, seat, userID, int64(ttl/time.Second)))
    }
    return res
}

// Release drops the hold on a seat and announces seat-released.  It is
// idempotent and safe to call after expiry; the announcement is made
// regardless because observers treat it as "this seat is available",
// which is true either way.
func (c *Coordinator) Release(ctx context.Context, tripID uint64, seat string) error {
    if err := c.holds.ReleaseHold(ctx, tripID, seat); err != nil {
        return err
    }
    c.bus.Publish(ws.SeatReleased(tripID, seat))
    return nil
}

// Purchase promotes held seats to sold.  It first verifies through
// authoritative point lookups that every requested seat carries a live
// hold owned by userID; any miss rejects the whole request with a
// *NotHeldError and no mutation.  It then runs the ledger's atomic
// check-and-insert for exactly that seat set.  On commit the holds are
// released and one seat-sold event is published per seat; once the
// ledger has committed the purchase is a success no matter what the
// cleanup does.  On a ledger conflict nothing is released and nothing
// is announced: losing that race is a legitimate business outcome, not
// a fault.
func (c *Coordinator) Purchase(ctx context.Context, tripID uint64, seats []string, userID uint64) ([]model.Purchase, error) {
    var invalid []string
    for _, seat := range seats {
        h, err := c.holds.GetHold(ctx, tripID, seat)
        if err != nil {
            return nil, err
        }
        if h == nil || h.UserID != userID {
            invalid = append(invalid, seat)
        }
    }
    if len(invalid) > 0 {
        return nil, &NotHeldError{Seats: invalid}
    }

    purchases, err := c.ledger.CheckAndInsert(ctx, tripID, seats, userID)
    if err != nil {
        return nil, err
    }

    // Ledger committed: the sale supersedes the holds.  Releases here
    // are best effort — an orphaned hold simply expires on its own —
    // so a failure is logged, never returned.  No seat-released event
    // is sent since seat-sold already moves the seat to its terminal
    // state.
    for _, seat := range seats {
        if relErr := c.holds.ReleaseHold(ctx, tripID, seat); relErr != nil {
            log.Printf("booking: release hold after sale failed for trip %d seat %s: %v", tripID, seat, relErr)
        }
        c.bus.Publish(ws.SeatSold(tripID, seat, userID))
    }
    return purchases, nil
}

// TripStatus returns the sold and held seat sets for a trip, computed
// fresh on every call.  Everything outside the union is available.
func (c *Coordinator) TripStatus(ctx context.Context, tripID uint64) (sold, held []string, err error) {
    sold, err = c.ledger.ListSoldSeats(ctx, tripID)
    if err != nil {
        return nil, nil, err
    }
    held, err = c.holds.ListHeldSeats(ctx, tripID)
    if err != nil {
        return nil, nil, err
    }
    if sold == nil {
        sold = []string{}
    }
    if held == nil {
        held = []string{}
    }
    return sold, held, nil
}
