package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-seat-reservation/internal/booking"
    "github.com/iliyamo/bus-seat-reservation/internal/model"
    "github.com/iliyamo/bus-seat-reservation/internal/queue"
    "github.com/iliyamo/bus-seat-reservation/internal/repository"
    queue_publisher "github.com/iliyamo/bus-seat-reservation/internal/service"
)

// SeatHandler exposes the seat state machine over HTTP: hold, release
// and purchase.  Validation happens here, before any store access;
// conflicts come back from the coordinator as data, not as faults.
type SeatHandler struct {
    Trips       *repository.TripRepo
    Coordinator *booking.Coordinator
    MaxHoldTTL  int // upper bound for requested TTLs, seconds
}

// NewSeatHandler constructs a SeatHandler.  Dependencies must be non-nil.
func NewSeatHandler(trips *repository.TripRepo, coord *booking.Coordinator, maxHoldTTL int) *SeatHandler {
    if trips == nil || coord == nil {
        panic("nil dependency passed to NewSeatHandler")
    }
    return &SeatHandler{Trips: trips, Coordinator: coord, MaxHoldTTL: maxHoldTTL}
}

// ----- DTOs -----

type holdReq struct {
    TripID      uint64   `json:"tripId" validate:"required"`
    UserID      uint64   `json:"userId" validate:"required"`
    TTLSeconds  int64    `json:"ttlSeconds" validate:"required,gt=0"`
    SeatNumber  string   `json:"seatNumber"`
    SeatNumbers []string `json:"seatNumbers"`
}

type releaseReq struct {
    TripID     uint64 `json:"tripId" validate:"required"`
    SeatNumber string `json:"seatNumber" validate:"required"`
}

type purchaseReq struct {
    TripID      uint64   `json:"tripId" validate:"required"`
    UserID      uint64   `json:"userId" validate:"required"`
    Email       string   `json:"email" validate:"required,email"`
    SeatNumber  string   `json:"seatNumber"`
    SeatNumbers []string `json:"seatNumbers"`
}

type purchasedSeat struct {
    SeatNumber  string `json:"seatNumber"`
    InvoiceLink string `json:"invoiceLink"`
}

// normalizeSeats merges the single-seat and multi-seat request fields
// into one deduplicated list, preserving order.
func normalizeSeats(single string, many []string) []string {
    src := many
    if len(src) == 0 && single != "" {
        src = []string{single}
    }
    seen := make(map[string]struct{}, len(src))
    out := make([]string, 0, len(src))
    for _, s := range src {
        s = strings.TrimSpace(s)
        if s == "" {
            continue
        }
        if _, ok := seen[s]; ok {
            continue
        }
        seen[s] = struct{}{}
        out = append(out, s)
    }
    return out
}

// loadTrip fetches the trip and validates every seat label against its
// layout.  It returns nil after writing the error response itself when
// the trip is missing or a label is invalid.
func (h *SeatHandler) loadTrip(c echo.Context, tripID uint64, seats []string) (*model.BusTrip, error) {
    trip, err := h.Trips.GetByID(c.Request().Context(), tripID)
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    var unknown []string
    for _, s := range seats {
        if !trip.Layout.Contains(s) {
            unknown = append(unknown, s)
        }
    }
    if len(unknown) > 0 {
        return nil, c.JSON(http.StatusBadRequest, echo.Map{
            "error":   "unknown seat label(s) for this trip",
            "unknown": unknown,
        })
    }
    return trip, nil
}

// HoldSeats handles POST /seats/hold.  Each seat is attempted
// independently; the response enumerates exactly which seats were held
// and which conflicted.  The request succeeds (200) when at least one
// seat was held and reports 409 when none were.
func (h *SeatHandler) HoldSeats(c echo.Context) error {
    var req holdReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tripId, userId, ttlSeconds are required and ttlSeconds must be > 0"})
    }
    seats := normalizeSeats(req.SeatNumber, req.SeatNumbers)
    if len(seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatNumber or seatNumbers[] required"})
    }
    ttl := req.TTLSeconds
    if h.MaxHoldTTL > 0 && ttl > int64(h.MaxHoldTTL) {
        ttl = int64(h.MaxHoldTTL)
    }
    trip, err := h.loadTrip(c, req.TripID, seats)
    if trip == nil {
        return err
    }

    res := h.Coordinator.Hold(c.Request().Context(), req.TripID, seats, req.UserID, time.Duration(ttl)*time.Second)
    status := http.StatusOK
    if !res.Success() {
        status = http.StatusConflict
    }
    held := res.Held
    if held == nil {
        held = []string{}
    }
    conflicts := res.Conflicts
    if conflicts == nil {
        conflicts = []booking.SeatConflict{}
    }
    return c.JSON(status, echo.Map{
        "held":      held,
        "conflicts": conflicts,
        "success":   res.Success(),
    })
}

// ReleaseSeat handles POST /seats/release.  Releasing is idempotent;
// releasing a seat that is not held still reports success.
func (h *SeatHandler) ReleaseSeat(c echo.Context) error {
    var req releaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tripId and seatNumber are required"})
    }
    if err := h.Coordinator.Release(c.Request().Context(), req.TripID, req.SeatNumber); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seat"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// PurchaseSeats handles POST /seats/purchase.  The whole request is
// atomic: either every requested seat is purchased or none is.  Hold
// ownership failures and ledger conflicts both come back as 409 with
// the offending seats listed so the client can pick different ones.
func (h *SeatHandler) PurchaseSeats(c echo.Context) error {
    var req purchaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tripId, userId, email are required"})
    }
    seats := normalizeSeats(req.SeatNumber, req.SeatNumbers)
    if len(seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatNumber or seatNumbers[] required"})
    }
    trip, err := h.loadTrip(c, req.TripID, seats)
    if trip == nil {
        return err
    }

    purchases, err := h.Coordinator.Purchase(c.Request().Context(), req.TripID, seats, req.UserID)
    if err != nil {
        var notHeld *booking.NotHeldError
        if errors.As(err, &notHeld) {
            return c.JSON(http.StatusConflict, echo.Map{
                "error":   "Some seats not held by user",
                "invalid": notHeld.Seats,
            })
        }
        var sold *repository.SoldSeatsError
        if errors.As(err, &sold) {
            return c.JSON(http.StatusConflict, echo.Map{
                "error": sold.Error(),
                "sold":  sold.Seats,
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete purchase"})
    }

    // Notify the buyer off the request path.  A broker outage costs an
    // email, never the purchase.
    go publishPurchaseEvent(trip, purchases, req.Email)

    out := make([]purchasedSeat, 0, len(purchases))
    for _, p := range purchases {
        out = append(out, purchasedSeat{
            SeatNumber:  p.SeatNumber,
            InvoiceLink: "/invoices/" + p.ReceiptToken,
        })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "success":   true,
        "purchased": out,
    })
}

func publishPurchaseEvent(trip *model.BusTrip, purchases []model.Purchase, email string) {
    if len(purchases) == 0 {
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    receipts := make([]queue.SeatReceipt, 0, len(purchases))
    for _, p := range purchases {
        receipts = append(receipts, queue.SeatReceipt{SeatNumber: p.SeatNumber, ReceiptToken: p.ReceiptToken})
    }
    _ = queue_publisher.PublishPurchaseCompleted(ctx, queue.PurchaseCompletedEvent{
        TripID:        trip.ID,
        RouteDetails:  trip.RouteDetails,
        DepartureTime: trip.DepartureTime.UTC().Format(time.RFC3339),
        UserID:        purchases[0].UserID,
        BuyerEmail:    email,
        Seats:         receipts,
        PricePerSeat:  trip.PricePerSeat,
        PurchasedAt:   purchases[0].PurchaseTime.UTC().Format(time.RFC3339),
    })
}
