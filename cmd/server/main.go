package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/booking"
	"github.com/Pedro4O4/event-ticketing/internal/config"
	"github.com/Pedro4O4/event-ticketing/internal/database"
	"github.com/Pedro4O4/event-ticketing/internal/handler"
	"github.com/Pedro4O4/event-ticketing/internal/middleware"
	"github.com/Pedro4O4/event-ticketing/internal/queue"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
	"github.com/Pedro4O4/event-ticketing/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache and rate limiting disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	theaters := repository.NewTheaterRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	store := repository.NewEventStore(db)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	theaterH := handler.NewOrganizerTheaterHandler(theaters)
	eventH := handler.NewOrganizerEventHandler(events, theaters)
	publicH := handler.NewPublicHandler(events, theaters, bookings)
	adminH := handler.NewAdminHandler(events, users, theaters, tokens)
	bookingH := handler.NewBookingHandler(booking.NewAllocator(store), bookings, events)

	e := echo.New()
	e.HideBanner = true

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	e.Use(limit)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cache)
	router.RegisterOrganizer(e, theaterH, eventH, bookingH, cfg.JWTSecret)
	router.RegisterCustomer(e, bookingH, cfg.JWTSecret, nil)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Broker consumer runs for the lifetime of the process and reconnects
	// on its own.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
