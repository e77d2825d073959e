package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-seat-reservation/internal/booking"
    "github.com/iliyamo/bus-seat-reservation/internal/config"
    "github.com/iliyamo/bus-seat-reservation/internal/database"
    "github.com/iliyamo/bus-seat-reservation/internal/handler"
    "github.com/iliyamo/bus-seat-reservation/internal/middleware"
    "github.com/iliyamo/bus-seat-reservation/internal/queue"
    "github.com/iliyamo/bus-seat-reservation/internal/repository"
    "github.com/iliyamo/bus-seat-reservation/internal/router"
    "github.com/iliyamo/bus-seat-reservation/internal/ws"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }

    // Redis is mandatory: without it there is no atomic
    // create-if-absent-with-TTL and therefore no hold store.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Fatal("redis: connection failed; the hold store cannot operate without it")
    }

    holds := repository.NewHoldStore(rdb)
    trips := repository.NewTripRepo(db)
    purchases := repository.NewPurchaseRepo(db)
    users := repository.NewUserRepo(db)

    hub := ws.NewHub()
    go hub.Run()

    coordinator := booking.New(holds, purchases, hub)

    // Purchase confirmations ride RabbitMQ; the consumer reconnects on
    // its own and never touches request latency.
    go func() {
        if err := queue.StartPurchaseConsumer(); err != nil {
            log.Printf("purchase-consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    router.RegisterHealth(e, db)
    router.RegisterSeats(e, handler.NewSeatHandler(trips, coordinator, cfg.MaxHoldTTL), limiter)
    router.RegisterTrips(e, handler.NewTripHandler(trips, purchases, coordinator), cfg.JWTSecret)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
    router.RegisterInvoices(e, handler.NewInvoiceHandler(purchases, trips))
    router.RegisterBroadcast(e, hub)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
