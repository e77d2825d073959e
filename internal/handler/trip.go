package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-seat-reservation/internal/booking"
    "github.com/iliyamo/bus-seat-reservation/internal/model"
    "github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// TripHandler exposes the trip catalog plus the derived seat view.  The
// catalog itself is plain CRUD; the interesting part is GET /trips/:id,
// which unions the sold set from the ledger with the held set from the
// hold store, computed fresh on every request.
type TripHandler struct {
    Trips       *repository.TripRepo
    Purchases   *repository.PurchaseRepo
    Coordinator *booking.Coordinator
}

// NewTripHandler constructs a TripHandler.  Dependencies must be non-nil.
func NewTripHandler(trips *repository.TripRepo, purchases *repository.PurchaseRepo, coord *booking.Coordinator) *TripHandler {
    if trips == nil || purchases == nil || coord == nil {
        panic("nil dependency passed to NewTripHandler")
    }
    return &TripHandler{Trips: trips, Purchases: purchases, Coordinator: coord}
}

type createTripReq struct {
    RouteDetails  string           `json:"routeDetails" validate:"required"`
    DepartureTime time.Time        `json:"departureTime" validate:"required"`
    ArrivalTime   time.Time        `json:"arrivalTime" validate:"required"`
    BusType       string           `json:"busType" validate:"required"`
    Layout        model.SeatLayout `json:"layout"`
    PricePerSeat  float64          `json:"pricePerSeat" validate:"gte=0"`
    SaleDuration  int              `json:"saleDuration" validate:"gte=0"`
}

// ListTrips handles GET /trips and returns all trips ordered by
// departure time.
func (h *TripHandler) ListTrips(c echo.Context) error {
    trips, err := h.Trips.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list trips"})
    }
    if trips == nil {
        trips = []model.BusTrip{}
    }
    return c.JSON(http.StatusOK, trips)
}

// CreateTrip handles POST /trips (organizer only).  Row letters cap the
// layout at 26 rows.
func (h *TripHandler) CreateTrip(c echo.Context) error {
    var req createTripReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
    }
    if req.Layout.Rows < 1 || req.Layout.Rows > 26 || req.Layout.SeatsPerRow < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "layout must have 1-26 rows and at least 1 seat per row"})
    }
    if !req.ArrivalTime.After(req.DepartureTime) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrivalTime must be after departureTime"})
    }
    trip := &model.BusTrip{
        RouteDetails:  req.RouteDetails,
        DepartureTime: req.DepartureTime,
        ArrivalTime:   req.ArrivalTime,
        BusType:       req.BusType,
        Layout:        req.Layout,
        PricePerSeat:  req.PricePerSeat,
        SaleDuration:  req.SaleDuration,
    }
    if err := h.Trips.Create(c.Request().Context(), trip); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
    }
    return c.JSON(http.StatusCreated, trip)
}

// GetTrip handles GET /trips/:id.  The response couples the trip row
// with the live seat view: soldSeats from the purchase ledger, heldSeats
// from the hold store.  The view is derived on every call and is never
// cached, so clients reconnecting to the broadcast stream can use it to
// reconcile.
func (h *TripHandler) GetTrip(c echo.Context) error {
    tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || tripID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    ctx := c.Request().Context()
    trip, err := h.Trips.GetByID(ctx, tripID)
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    sold, held, err := h.Coordinator.TripStatus(ctx, tripID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat status"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "trip": trip,
        "status": echo.Map{
            "soldSeats": sold,
            "heldSeats": held,
        },
    })
}

// ResetPurchases handles POST /trips/:id/reset-purchases (organizer
// only).  It wipes the ledger for one trip; demo tooling, exempt from
// the sold-is-terminal guarantee.
func (h *TripHandler) ResetPurchases(c echo.Context) error {
    tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || tripID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    deleted, err := h.Purchases.DeleteByTrip(c.Request().Context(), tripID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset purchases"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "deleted": deleted})
}
