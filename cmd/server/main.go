package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/usaha/rental-api/internal/config"     // Internal config loader
    "github.com/usaha/rental-api/internal/database"   // MySQL connector
    "github.com/usaha/rental-api/internal/handler"    // HTTP handlers
    "github.com/usaha/rental-api/internal/middleware" // Cache and rate-limit middleware
    "github.com/usaha/rental-api/internal/queue"      // Broker consumer
    "github.com/usaha/rental-api/internal/repository" // Data access layer
    "github.com/usaha/rental-api/internal/router"     // Route registration
)

func main() {
    // Load a .env file when present; real environments set variables
    // directly and the missing file is not an error.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs the public response cache and the rate limiter.  A nil
    // client disables both and the API keeps serving.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; cache and rate limiting disabled")
    }

    users := repository.NewUserRepo(db)
    profiles := repository.NewProfileRepo(db)
    tokens := repository.NewTokenRepo(db)
    facilities := repository.NewFacilityRepo(db)
    bookings := repository.NewBookingRepo(db)
    reviews := repository.NewReviewRepo(db)
    payments := repository.NewPaymentRepo(db)
    tools := repository.NewToolRepo(db)
    receipts := repository.NewReceiptRepo(db)

    authH := handler.NewAuthHandler(cfg, users, profiles, tokens)
    facilityH := handler.NewFacilityHandler(facilities)
    bookingH := handler.NewBookingHandler(bookings, reviews)
    reviewH := handler.NewReviewHandler(reviews, bookings)
    paymentH := handler.NewPaymentHandler(payments, bookings)
    toolH := handler.NewToolHandler(tools)
    receiptH := handler.NewReceiptHandler(receipts)
    browseH := handler.NewBrowseHandler(facilities, reviews, tools, profiles)

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, browseH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    router.RegisterRental(e, facilityH, bookingH, reviewH, paymentH, cfg.JWTSecret)
    router.RegisterMarket(e, toolH, receiptH, cfg.JWTSecret)

    // Consume payment.completed events in the background; the consumer
    // reconnects on broker failures and never stops the server.
    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            log.Printf("payment consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
