// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into buyer notifications.
package queue

// SeatReceipt pairs a sold seat with the token that retrieves its invoice.
type SeatReceipt struct {
    SeatNumber   string `json:"seatNumber"`
    ReceiptToken string `json:"receiptToken"`
}

// PurchaseCompletedEvent is published after the purchase ledger commits.
// It carries everything the notification pipeline needs so consumers never
// query the primary database.  Publishing and consuming are both best
// effort: a broker failure never rolls back the purchase.
type PurchaseCompletedEvent struct {
    TripID        uint64        `json:"trip_id"`
    RouteDetails  string        `json:"route_details"`
    DepartureTime string        `json:"departure_time"`
    UserID        uint64        `json:"user_id"`
    BuyerEmail    string        `json:"buyer_email"`
    Seats         []SeatReceipt `json:"seats"`
    PricePerSeat  float64       `json:"price_per_seat"`
    PurchasedAt   string        `json:"purchased_at"`
}
