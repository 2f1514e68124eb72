package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/venuedesk/seat-reservation/internal/booking"
	"github.com/venuedesk/seat-reservation/internal/clock"
	"github.com/venuedesk/seat-reservation/internal/config"
	"github.com/venuedesk/seat-reservation/internal/database"
	"github.com/venuedesk/seat-reservation/internal/handler"
	"github.com/venuedesk/seat-reservation/internal/middleware"
	"github.com/venuedesk/seat-reservation/internal/queue"
	"github.com/venuedesk/seat-reservation/internal/repository"
	"github.com/venuedesk/seat-reservation/internal/router"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "seat-reservation").
		Logger()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	// Redis backs rate limiting and response caching only; without
	// it both middlewares become pass-throughs and booking still
	// works.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and response caching disabled")
	}

	venueRepo := repository.NewVenueRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	showingRepo := repository.NewShowingRepo(db)
	contentRepo := repository.NewContentRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	// Booking core.  Event publishing is best-effort and optional;
	// with no broker configured the coordinator gets a no-op sink.
	var events booking.Events = booking.NopEvents{}
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log.With().Str("component", "publisher").Logger())
	}
	coordinator := booking.NewCoordinator(
		repository.NewLedgerStore(db),
		booking.NewReferenceGenerator(rand.NewSource(time.Now().UnixNano())),
		clock.NewReal(),
		events,
		log.With().Str("component", "coordinator").Logger(),
	)
	scheduler := booking.NewScheduler(
		repository.NewScheduleStore(db),
		log.With().Str("component", "scheduler").Logger(),
	)

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicH := handler.NewPublicHandler(venueRepo, seatRepo, showingRepo, contentRepo)
	bookingH := handler.NewBookingHandler(coordinator, reservationRepo)
	venueH := handler.NewVenueHandler(venueRepo, seatRepo)
	showingH := handler.NewShowingHandler(scheduler)
	adminResH := handler.NewAdminReservationHandler(coordinator, reservationRepo)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterCustomer(e, bookingH, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAdmin(e, venueH, showingH, adminResH, cfg.JWTSecret)

	if cfg.RabbitURL != "" {
		go queue.StartReservationConsumer(cfg.RabbitURL, log.With().Str("component", "consumer").Logger())
	}

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
