package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/brightevents/bright-events/internal/config"
	"github.com/brightevents/bright-events/internal/database"
	"github.com/brightevents/bright-events/internal/handler"
	"github.com/brightevents/bright-events/internal/middleware"
	"github.com/brightevents/bright-events/internal/queue"
	"github.com/brightevents/bright-events/internal/repository"
	"github.com/brightevents/bright-events/internal/router"
	"github.com/brightevents/bright-events/internal/service"
)

func main() {
	cfg := config.Load() // missing required env vars abort startup here

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: without it the limiter and cache pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	// Background consumers: the mail worker that delivers reset emails and
	// the RSVP notification worker. They reconnect on their own.
	go func() {
		if err := queue.StartPasswordResetConsumer(cfg.AmqpURL); err != nil {
			log.Printf("password-reset consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartRsvpConsumer(cfg.AmqpURL); err != nil {
			log.Printf("rsvp consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	revoked := repository.NewRevocationRepo(db)
	events := repository.NewEventRepo(db)
	rsvps := repository.NewRsvpRepo(db)
	publisher := service.NewAMQPPublisher(cfg.AmqpURL)

	e := echo.New()
	router.Register(e, router.Deps{
		Auth:    handler.NewAuthHandler(cfg, users, revoked, publisher),
		Events:  handler.NewEventHandler(events),
		Rsvps:   handler.NewRsvpHandler(rsvps, events, publisher),
		Search:  handler.NewSearchHandler(events),
		Guard:   middleware.SessionGuard(cfg.JWTSecret, users, revoked),
		Limiter: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:   middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
