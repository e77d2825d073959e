package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-seat-reservation/internal/invoice"
    "github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// InvoiceHandler serves receipt PDFs by their opaque token.  Rendering
// is on demand and idempotent: the same token always resolves to the
// same purchase row and an equivalent document.
type InvoiceHandler struct {
    Purchases *repository.PurchaseRepo
    Trips     *repository.TripRepo
}

// NewInvoiceHandler constructs an InvoiceHandler.  Dependencies must be non-nil.
func NewInvoiceHandler(purchases *repository.PurchaseRepo, trips *repository.TripRepo) *InvoiceHandler {
    if purchases == nil || trips == nil {
        panic("nil dependency passed to NewInvoiceHandler")
    }
    return &InvoiceHandler{Purchases: purchases, Trips: trips}
}

// GetInvoice handles GET /invoices/:token.
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
    token := c.Param("token")
    if token == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
    }
    ctx := c.Request().Context()
    p, err := h.Purchases.FindByReceiptToken(ctx, token)
    if err != nil {
        if errors.Is(err, repository.ErrPurchaseNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found for this purchase"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    trip, err := h.Trips.GetByID(ctx, p.TripID)
    if err != nil {
        // The purchase row exists, so a missing trip is a data problem,
        // not a client error.
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip for invoice"})
    }
    pdf, err := invoice.Render(invoice.Data{
        TripID:       p.TripID,
        RouteDetails: trip.RouteDetails,
        SeatNumber:   p.SeatNumber,
        UserID:       p.UserID,
        PricePerSeat: trip.PricePerSeat,
        PurchaseTime: p.PurchaseTime,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate invoice"})
    }
    c.Response().Header().Set("Content-Disposition",
        fmt.Sprintf("inline; filename=invoice-%d-%s.pdf", p.TripID, p.SeatNumber))
    return c.Blob(http.StatusOK, "application/pdf", pdf)
}
