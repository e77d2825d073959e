package router // package router defines how HTTP routes are registered for the API

import (
    "database/sql"

    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/iliyamo/bus-seat-reservation/internal/handler"
    "github.com/iliyamo/bus-seat-reservation/internal/middleware"
    "github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// RegisterHealth registers the unauthenticated liveness endpoints.
// /healthz answers immediately; /keep-alive also pings the database so
// uptime monitors exercise the pool.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
    e.GET("/healthz", handler.Health)
    e.GET("/keep-alive", handler.KeepAlive(db))
}

// RegisterSeats registers the seat state machine endpoints.  These are
// the hot paths, so the Redis token bucket limiter wraps them; holder
// identity travels in the payload, so no JWT is required here.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, limiter echo.MiddlewareFunc) {
    g := e.Group("/seats", limiter)
    g.POST("/hold", s.HoldSeats)
    g.POST("/release", s.ReleaseSeat)
    g.POST("/purchase", s.PurchaseSeats)
}

// RegisterTrips registers the trip catalog.  Reads are public; trip
// creation and the purchase reset require an ORGANIZER token.
func RegisterTrips(e *echo.Echo, t *handler.TripHandler, jwtSecret string) {
    e.GET("/trips", t.ListTrips)
    e.GET("/trips/:id", t.GetTrip)

    org := e.Group("/trips",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ORGANIZER"),
    )
    org.POST("", t.CreateTrip)
    org.POST("/:id/reset-purchases", t.ResetPurchases)
}

// RegisterAuth registers registration and login plus the protected /me
// endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)

    me := e.Group("/me", middleware.JWTAuth(jwtSecret))
    me.GET("", a.Me)
}

// RegisterInvoices registers receipt retrieval by token.
func RegisterInvoices(e *echo.Echo, i *handler.InvoiceHandler) {
    e.GET("/invoices/:token", i.GetInvoice)
}

// RegisterBroadcast registers the WebSocket endpoint streaming seat
// state transitions.
func RegisterBroadcast(e *echo.Echo, hub *ws.Hub) {
    e.GET("/ws", ws.Serve(hub))
}
