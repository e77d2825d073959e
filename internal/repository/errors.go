// Package repository contains the data-access layer: the Redis hold
// store and the MySQL repositories for trips, purchases and users.
// This file defines the error values shared across repositories so
// that handlers and the booking coordinator can distinguish business
// conflicts from infrastructure failures.  Conflicts are expected
// outcomes and are never logged as system faults.
package repository

import (
    "errors"
    "fmt"
    "strings"
)

// ErrTripNotFound is returned when a trip lookup by ID matches no row.
// Handlers translate this into an HTTP 404 response.
var ErrTripNotFound = errors.New("trip not found")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registration collides with an
// existing email address.  Handlers translate this into HTTP 409.
var ErrEmailTaken = errors.New("email already registered")

// ErrPurchaseNotFound is returned when no purchase matches a receipt
// token.  Handlers translate this into HTTP 404.
var ErrPurchaseNotFound = errors.New("purchase not found")

// SoldSeatsError reports that a ledger transaction aborted because one
// or more requested seats were already sold.  It is raised both by the
// locking pre-read and by the UNIQUE(trip_id, seat_number) constraint
// when the race is lost after the pre-read; the two cases are
// indistinguishable to callers.  Nothing is committed when this error
// is returned.
type SoldSeatsError struct {
    Seats []string // seats that blocked the transaction
}

func (e *SoldSeatsError) Error() string {
    return fmt.Sprintf("seats already purchased: %s", strings.Join(e.Seats, ", "))
}
