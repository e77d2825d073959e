package model

import "time"

// Purchase is the durable record that a (trip, seat) pair was sold.
// Rows are inserted exactly once inside the ledger transaction and are
// never mutated afterwards; the UNIQUE (trip_id, seat_number) index
// makes "sold" permanent.  Deletion happens only through the
// administrative reset endpoint.
//
// Fields:
//  ID           – primary key identifier.
//  TripID       – trip on which the seat was sold.
//  SeatNumber   – seat label such as "A1".
//  UserID       – buyer.
//  PurchaseTime – when the ledger transaction committed.
//  ReceiptToken – opaque token used to retrieve the invoice PDF.
//  CreatedAt    – creation timestamp.
type Purchase struct {
    ID           uint64    `json:"id"`           // purchases.id
    TripID       uint64    `json:"tripId"`       // purchases.trip_id
    SeatNumber   string    `json:"seatNumber"`   // purchases.seat_number
    UserID       uint64    `json:"userId"`       // purchases.user_id
    PurchaseTime time.Time `json:"purchaseTime"` // purchases.purchase_time
    ReceiptToken string    `json:"receiptToken"` // purchases.receipt_token
    CreatedAt    time.Time `json:"createdAt"`    // purchases.created_at
}
